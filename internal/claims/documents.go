package claims

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/receipt"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/internal/workflow"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	msgSkipDenied   = "You do not have permission to skip documents"
	msgUploadDenied = "You do not have permission to upload documents"
	msgDeleteDenied = "You do not have permission to delete documents"
)

const msgInvalidCategory = "Invalid category"

// ListDocuments returns the documents of a case, newest first. A non-empty
// category narrows the list to that category.
func (s *Service) ListDocuments(ctx context.Context, p *access.Principal, caseID, category string) ([]database.Document, error) {
	if caseID == "" {
		return nil, apperror.Validation("Case ID is required")
	}
	if category != "" && !workflow.IsKnownCategory(category) {
		return nil, apperror.Validation(msgInvalidCategory)
	}
	if err := s.gate.AuthorizeCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("case_id = ?", caseID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	docs := []database.Document{}
	err := q.Order("uploaded_at DESC").Find(&docs).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch documents", err)
	}
	return docs, nil
}

// SkippedCategories lists the categories marked not required for a case
func (s *Service) SkippedCategories(ctx context.Context, p *access.Principal, caseID string) ([]string, error) {
	if caseID == "" {
		return nil, apperror.Validation("Case ID is required")
	}
	if err := s.gate.AuthorizeCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	categories := []string{}
	err := s.db.WithContext(ctx).Model(&database.SkippedDocument{}).
		Where("case_id = ?", caseID).
		Pluck("category", &categories).Error
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch skipped documents", err)
	}
	return categories, nil
}

// SkipDocument marks a category as not required and completes its mapped
// task, or removes the mark again. Unskipping leaves the task untouched.
// skip defaults to true when nil.
func (s *Service) SkipDocument(ctx context.Context, p *access.Principal, caseID, category string, skip *bool) error {
	if caseID == "" || category == "" {
		return apperror.Validation("Case ID and category are required")
	}
	if !workflow.IsKnownCategory(category) {
		return apperror.Validation(msgInvalidCategory)
	}
	if err := s.gate.AuthorizeCaseEdit(ctx, p, caseID, msgSkipDenied); err != nil {
		return err
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return err
	}

	doSkip := true
	if skip != nil {
		doSkip = *skip
	}

	if !doSkip {
		err := s.db.WithContext(ctx).
			Where("case_id = ? AND category = ?", caseID, category).
			Delete(&database.SkippedDocument{}).Error
		if err != nil {
			return apperror.Upstream("Failed to unskip document", err)
		}
		s.record(ctx, caseID, p.UserID, ActionDocumentUnskip, categoryMeta(category))
		return nil
	}

	actor := p.Name
	if actor == "" {
		actor = p.Email
	}
	if actor == "" {
		actor = "Admin"
	}

	row := &database.SkippedDocument{CaseID: caseID, Category: category, CreatedBy: p.UserID}
	err = s.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.db.WithContext(ctx).Model(&database.SkippedDocument{}).
			Where("case_id = ? AND category = ?", caseID, category).
			Update("created_by", p.UserID).Error
	}
	if err != nil {
		return apperror.Upstream("Failed to skip document", err)
	}

	// Only the board stage decides the payment receipt task here; the
	// insurer's answer is not consulted for skips.
	if taskKey, ok := workflow.ResolveDocumentTask(category, workflow.CaseContext{BoardStage: c.BoardStage}); ok {
		item := workflow.CompletionUpdate(caseID, taskKey, true, actor, s.now())
		if err := upsertItem(ctx, s.db, &item); err != nil {
			return apperror.Upstream("Failed to update checklist", err)
		}
		if _, err := s.syncBoardStage(ctx, caseID); err != nil {
			s.logger.Warn("Failed to re-read checklist", "case_id", caseID, "error", err)
		}
	}

	s.record(ctx, caseID, p.UserID, ActionDocumentSkipped, categoryMeta(category))
	return nil
}

func categoryMeta(category string) map[string]interface{} {
	return map[string]interface{}{
		"category":      category,
		"category_name": workflow.DocumentName(category),
	}
}

// UploadFile is one file of a multipart upload
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadSeekCloser, error)
}

// UploadError reports a file that could not be stored
type UploadError struct {
	FileName string `json:"fileName,omitempty"`
	Error    string `json:"error"`
}

// UploadResult holds the stored documents and the per-file failures
type UploadResult struct {
	Documents []database.Document `json:"documents"`
	Errors    []UploadError       `json:"errors,omitempty"`
}

// ErrNoFilesStored is returned with a result when every file failed
var ErrNoFilesStored = apperror.Upstream("Failed to upload any files", nil)

// UploadDocuments stores each file and inserts its row. Files fail
// independently. When at least one file is stored, the task mapped to the
// category is completed unless it already is.
func (s *Service) UploadDocuments(ctx context.Context, p *access.Principal, caseID, category, uploadedByName string, files []UploadFile) (*UploadResult, error) {
	if caseID == "" || category == "" || len(files) == 0 {
		return nil, apperror.Validation("File(s), case ID, and category are required")
	}
	if !workflow.IsKnownCategory(category) {
		return nil, apperror.Validation(msgInvalidCategory)
	}
	if err := s.gate.AuthorizeCaseEdit(ctx, p, caseID, msgUploadDenied); err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	byName := uploadedByName
	if byName == "" {
		byName = p.Name
	}

	var (
		mu     sync.Mutex
		result = &UploadResult{Documents: []database.Document{}}
	)
	docs := make([]*database.Document, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.UploadWorkers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			doc, uerr := s.storeOne(gctx, p, caseID, category, byName, f)
			if uerr != nil {
				mu.Lock()
				result.Errors = append(result.Errors, *uerr)
				mu.Unlock()
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	for _, doc := range docs {
		if doc != nil {
			result.Documents = append(result.Documents, *doc)
		}
	}
	if len(result.Documents) == 0 {
		return result, ErrNoFilesStored
	}

	if taskKey, ok := workflow.ResolveDocumentTask(category, workflow.ContextOf(c)); ok {
		s.completeIfOpen(ctx, caseID, taskKey, p.DisplayName())
	}

	meta := categoryMeta(category)
	meta["count"] = len(result.Documents)
	s.record(ctx, caseID, p.UserID, ActionDocumentUploaded, meta)
	return result, nil
}

func (s *Service) storeOne(ctx context.Context, p *access.Principal, caseID, category, byName string, f UploadFile) (*database.Document, *UploadError) {
	failed := &UploadError{FileName: f.Name, Error: "Failed to upload file"}

	if s.opts.MaxUploadSize > 0 && f.Size > s.opts.MaxUploadSize {
		return nil, &UploadError{FileName: f.Name, Error: "File is too large"}
	}

	r, err := f.Open()
	if err != nil {
		s.logger.Error("Failed to open upload", "file", f.Name, "error", err)
		return nil, failed
	}
	defer r.Close()

	fileType := f.ContentType
	if fileType == "" || fileType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(f.Name))); byExt != "" {
			fileType = byExt
		} else if fileType == "" {
			fileType = strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
		}
	}

	pages := 0
	if isPDF(f.Name, fileType) {
		pages, err = pageCount(r)
		if err != nil {
			s.logger.Warn("Rejected invalid pdf", "case_id", caseID, "file", f.Name, "error", err)
			return nil, &UploadError{FileName: f.Name, Error: "Invalid PDF file"}
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, failed
		}
	}

	objectPath := storage.ObjectPath(caseID, f.Name, s.now())
	if err := s.store.Put(ctx, objectPath, r, fileType); err != nil {
		s.logger.Error("Failed to store upload", "case_id", caseID, "path", objectPath, "error", err)
		return nil, failed
	}

	doc := &database.Document{
		CaseID:     caseID,
		Name:       f.Name,
		Category:   category,
		FilePath:   objectPath,
		FileSize:   f.Size,
		FileType:   fileType,
		PageCount:  pages,
		UploadedBy: p.UserID,
	}
	if byName != "" {
		name := byName
		doc.UploadedByName = &name
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		s.logger.Error("Failed to save document record", "case_id", caseID, "error", err)
		if derr := s.store.Delete(context.WithoutCancel(ctx), objectPath); derr != nil {
			s.logger.Warn("Failed to remove orphaned object", "path", objectPath, "error", derr)
		}
		return nil, &UploadError{FileName: f.Name, Error: "Failed to save document record"}
	}
	return doc, nil
}

// completeIfOpen completes a task that is missing or not yet completed and
// recomputes the stage. Failures are logged; the upload already succeeded.
func (s *Service) completeIfOpen(ctx context.Context, caseID, taskKey, actor string) {
	var existing database.ChecklistItem
	err := s.db.WithContext(ctx).Where("case_id = ? AND task_key = ?", caseID, taskKey).First(&existing).Error
	if err == nil && existing.Completed {
		return
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("Failed to read checklist item", "case_id", caseID, "task_key", taskKey, "error", err)
		return
	}

	item := workflow.CompletionUpdate(caseID, taskKey, true, actor, s.now())
	if err := upsertItem(ctx, s.db, &item); err != nil {
		s.logger.Error("Failed to auto-complete checklist item", "case_id", caseID, "task_key", taskKey, "error", err)
		return
	}
	if _, err := s.syncBoardStage(ctx, caseID); err != nil {
		s.logger.Warn("Failed to re-read checklist", "case_id", caseID, "error", err)
	}
}

// isStoredPath reports whether a file_path refers to an object in the store
func isStoredPath(filePath string) bool {
	return filePath != "" && !receipt.IsSentinel(filePath)
}

func isPDF(name, fileType string) bool {
	return fileType == "application/pdf" || strings.EqualFold(path.Ext(name), ".pdf")
}

func pageCount(rs io.ReadSeeker) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(rs, conf)
}

// CreateNoReceiptDocument records a cash payment that has no receipt file
func (s *Service) CreateNoReceiptDocument(ctx context.Context, p *access.Principal, caseID, paymentDate string, amount *float64, uploadedByName string) (*database.Document, error) {
	if caseID == "" || paymentDate == "" {
		return nil, apperror.Validation("Case ID and payment date are required")
	}
	if err := s.gate.AuthorizeCaseEdit(ctx, p, caseID, msgUploadDenied); err != nil {
		return nil, err
	}
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}

	date, err := parsePaymentDate(paymentDate)
	if err != nil {
		return nil, apperror.Validation("Invalid payment date")
	}

	description := receipt.Description(date)
	doc := &database.Document{
		CaseID:      caseID,
		Name:        receipt.DisplayName(date),
		Category:    workflow.CategoryAcenteyeAtilanDekont,
		FilePath:    receipt.Encode(date, amount),
		FileSize:    0,
		FileType:    "text/plain",
		UploadedBy:  p.UserID,
		Description: &description,
	}
	byName := uploadedByName
	if byName == "" {
		byName = p.Name
	}
	if byName != "" {
		doc.UploadedByName = &byName
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		s.logger.Error("Failed to create no-receipt document", "case_id", caseID, "error", err)
		return nil, apperror.Upstream("Failed to create document record", err)
	}
	return doc, nil
}

func parsePaymentDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, receipt.DateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// DocumentContent is either a stored file or a decoded no-receipt record
type DocumentContent struct {
	Document  *database.Document
	Body      io.ReadCloser
	NoReceipt *receipt.NoReceipt
}

// OpenDocument loads a document the caller may read. For a no-receipt
// record Body is nil and NoReceipt is set.
func (s *Service) OpenDocument(ctx context.Context, p *access.Principal, documentID string) (*DocumentContent, error) {
	if documentID == "" {
		return nil, apperror.Validation("Document ID is required")
	}
	doc, err := s.gate.AuthorizeDocument(ctx, p, documentID)
	if err != nil {
		return nil, err
	}

	if n, ok := receipt.Decode(doc.FilePath); ok {
		return &DocumentContent{Document: doc, NoReceipt: &n}, nil
	}

	body, err := s.store.Open(ctx, doc.FilePath)
	if err != nil {
		s.logger.Error("Failed to open stored document", "document_id", doc.ID, "path", doc.FilePath, "error", err)
		return nil, apperror.Upstream("Failed to download file", err)
	}
	return &DocumentContent{Document: doc, Body: body}, nil
}

// ContentTypeFor picks the download content type from the file extension
func ContentTypeFor(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// DeleteDocument removes the stored object and the row. A storage failure
// is logged and does not keep the row alive.
func (s *Service) DeleteDocument(ctx context.Context, p *access.Principal, documentID string) error {
	if documentID == "" {
		return apperror.Validation("Document ID is required")
	}
	if !p.Can(access.EditCase) {
		return apperror.Forbidden(msgDeleteDenied)
	}
	doc, err := s.gate.AuthorizeDocument(ctx, p, documentID)
	if err != nil {
		return err
	}

	if isStoredPath(doc.FilePath) {
		if err := s.store.Delete(ctx, doc.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to delete stored file", "document_id", doc.ID, "path", doc.FilePath, "error", err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&database.Document{}, "id = ?", doc.ID).Error; err != nil {
		return apperror.Upstream("Failed to delete document record", err)
	}

	s.record(ctx, doc.CaseID, p.UserID, ActionDocumentDeleted, map[string]interface{}{
		"document_id": doc.ID,
		"category":    doc.Category,
	})
	return nil
}
