package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/claims"
	"github.com/bahadkc/deger360/internal/receipt"
	"github.com/gin-gonic/gin"
)

// GetDocuments lists the documents of a case
func (h *Handlers) GetDocuments(c *gin.Context) {
	docs, err := h.svc.ListDocuments(c.Request.Context(), principal(c), c.Query("caseId"), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetSkippedDocuments lists the skipped categories of a case
func (h *Handlers) GetSkippedDocuments(c *gin.Context) {
	categories, err := h.svc.SkippedCategories(c.Request.Context(), principal(c), c.Query("caseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// SkipDocument marks a document category as not needed, or reverts it
func (h *Handlers) SkipDocument(c *gin.Context) {
	var req struct {
		CaseID   string `json:"caseId"`
		Category string `json:"category"`
		Skip     *bool  `json:"skip"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.SkipDocument(c.Request.Context(), principal(c), req.CaseID, req.Category, req.Skip); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadDocument stores one or more files of a category
func (h *Handlers) UploadDocument(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, apperror.Validation("File(s), case ID, and category are required"))
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	files := make([]claims.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}

	result, err := h.svc.UploadDocuments(c.Request.Context(), principal(c),
		c.PostForm("caseId"), c.PostForm("category"), c.PostForm("uploadedByName"), files)
	if err != nil {
		if result != nil {
			h.logger.Error("No files stored", "case_id", c.PostForm("caseId"), "errors", result.Errors)
			c.JSON(apperror.StatusCode(err), gin.H{
				"success": false,
				"error":   err.Error(),
				"errors":  result.Errors,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": result.Documents,
		"errors":    result.Errors,
	})
}

func uploadFile(fh *multipart.FileHeader) claims.UploadFile {
	return claims.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

// CreateNoReceiptDocument records a cash payment that has no receipt file
func (h *Handlers) CreateNoReceiptDocument(c *gin.Context) {
	var req struct {
		CaseID         string   `json:"caseId"`
		PaymentDate    string   `json:"paymentDate"`
		Amount         *float64 `json:"amount"`
		UploadedByName string   `json:"uploadedByName"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.svc.CreateNoReceiptDocument(c.Request.Context(), principal(c), req.CaseID, req.PaymentDate, req.Amount, req.UploadedByName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// DownloadDocument streams a stored file, or renders the confirmation page
// of a no-receipt record
func (h *Handlers) DownloadDocument(c *gin.Context) {
	content, err := h.svc.OpenDocument(c.Request.Context(), principal(c), c.Query("documentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if content.NoReceipt != nil {
		var buf bytes.Buffer
		if err := receipt.Render(&buf, *content.NoReceipt); err != nil {
			h.respondError(c, apperror.Upstream("Failed to render receipt", err))
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
		return
	}
	defer content.Body.Close()

	doc := content.Document
	length := int64(-1)
	if doc.FileSize > 0 {
		length = doc.FileSize
	}
	c.DataFromReader(http.StatusOK, length, claims.ContentTypeFor(doc.Name), content.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(doc.Name)),
	})
}

// DeleteDocument removes a document and its stored file
func (h *Handlers) DeleteDocument(c *gin.Context) {
	var req struct {
		DocumentID string `json:"documentId"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.DeleteDocument(c.Request.Context(), principal(c), req.DocumentID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
