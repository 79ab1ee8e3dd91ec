package api

import (
	"github.com/bahadkc/deger360/internal/claims"
	"github.com/bahadkc/deger360/internal/config"
	"github.com/bahadkc/deger360/internal/report"
	"github.com/bahadkc/deger360/internal/session"
	"github.com/bahadkc/deger360/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, svc *claims.Service, reports *report.Aggregator, sessions *session.Manager, logger *logger.Logger, cfg *config.Config) *Handlers {
	h := NewHandlers(db, svc, reports, sessions, logger, cfg)

	api := router.Group("/api")
	{
		// Public endpoints
		api.GET("/health", h.HealthCheck)
		api.POST("/login-admin", h.LoginAdmin)
		api.POST("/login-portal", h.LoginPortal)
		api.POST("/logout", h.Logout)
		api.POST("/create-lead", h.CreateLead)
		api.POST("/contact", h.Contact)
	}

	authed := api.Group("")
	authed.Use(h.requireSession())
	{
		authed.GET("/check-admin-status", h.CheckAdminStatus)
		authed.POST("/update-password", h.UpdatePassword)

		// Cases and checklist
		authed.GET("/get-cases-board", h.GetCasesBoard)
		authed.GET("/get-dashboard-stats", h.GetDashboardStats)
		authed.GET("/get-customers", h.GetCustomers)
		authed.GET("/get-case/:caseId", h.GetCase)
		authed.GET("/get-case", h.GetCase)
		authed.GET("/get-user-cases", h.GetUserCases)
		authed.POST("/update-case", h.UpdateCase)
		authed.POST("/update-case-assignments", h.UpdateCaseAssignments)
		authed.GET("/get-checklist", h.GetChecklist)
		authed.POST("/update-checklist", h.UpdateChecklist)
		authed.GET("/get-activity-logs", h.GetActivityLogs)

		// Documents
		authed.GET("/get-documents", h.GetDocuments)
		authed.GET("/get-skipped-documents", h.GetSkippedDocuments)
		authed.POST("/skip-document", h.SkipDocument)
		authed.POST("/upload-document", h.UploadDocument)
		authed.POST("/create-no-receipt-document", h.CreateNoReceiptDocument)
		authed.GET("/download-document", h.DownloadDocument)
		authed.POST("/delete-document", h.DeleteDocument)

		// Staff and customers
		authed.GET("/get-admins", h.GetAdmins)
		authed.POST("/create-admin", h.CreateAdmin)
		authed.POST("/delete-admin", h.DeleteAdmin)
		authed.POST("/delete-customer", h.DeleteCustomer)

		// Reports
		authed.GET("/get-report-data", h.GetReportData)
		authed.POST("/clear-report-cache", h.ClearReportCache)
		authed.GET("/export-report", h.ExportReport)
		authed.GET("/welcome-letter", h.WelcomeLetter)
		authed.GET("/cache/stats", h.CacheStats)
	}

	return h
}
