package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/export"
	"github.com/bahadkc/deger360/internal/report"
	"github.com/gin-gonic/gin"
)

// GetReportData returns the raw report data for a period
func (h *Handlers) GetReportData(c *gin.Context) {
	period := c.DefaultQuery("period", report.PeriodAllTime)

	data, err := h.reports.GetReportData(c.Request.Context(), principal(c), period)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// ClearReportCache drops cached report data, optionally for one role only
func (h *Handlers) ClearReportCache(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if err := h.svc.Gate().RequireCapability(principal(c), access.ManageAdmins); err != nil {
		h.respondError(c, err)
		return
	}

	h.reports.ClearReportCache(req.Role)
	h.logger.Info("Report cache cleared", "role", req.Role, "by", principal(c).UserID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportReport downloads the period summary as CSV or PDF
func (h *Handlers) ExportReport(c *gin.Context) {
	period := c.DefaultQuery("period", report.PeriodAllTime)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		h.respondError(c, apperror.Validation("Invalid format"))
		return
	}

	data, err := h.reports.GetReportData(c.Request.Context(), principal(c), period)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary := report.Summarize(data, period, h.now())
	fileName := fmt.Sprintf("rapor-%s-%s.%s", period, h.now().Format("2006-01-02"), format)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "pdf":
		body, err = export.ReportPDF("Deger360 Rapor", summary)
		contentType = "application/pdf"
	default:
		var buf bytes.Buffer
		err = export.WriteCSV(&buf, summary, data)
		body = buf.Bytes()
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.respondError(c, apperror.Upstream("Failed to export report", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentType, body)
}

// WelcomeLetter renders the printable letter for a case's customer
func (h *Handlers) WelcomeLetter(c *gin.Context) {
	p := principal(c)
	if err := h.svc.Gate().RequireCapability(p, access.StaffPanel); err != nil {
		h.respondError(c, err)
		return
	}

	detail, err := h.svc.GetCase(c.Request.Context(), p, c.Query("caseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	letter := export.Letter{
		CaseNumber: detail.Case.CaseNumber,
		PortalURL:  h.cfg.PortalURL,
	}
	if cu := detail.Case.Customer; cu != nil {
		letter.CustomerName = cu.FullName
		if cu.DosyaTakipNumarasi != nil {
			letter.TrackingNumber = *cu.DosyaTakipNumarasi
		}
	}
	if letter.TrackingNumber == "" {
		h.respondError(c, apperror.Validation("Customer has no tracking number"))
		return
	}

	pdf, err := export.WelcomeLetterPDF(letter)
	if err != nil {
		h.respondError(c, apperror.Upstream("Failed to render letter", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="hosgeldiniz-%s.pdf"`, letter.TrackingNumber))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
