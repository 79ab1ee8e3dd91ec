package api

import (
	"net/http"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/claims"
	"github.com/bahadkc/deger360/internal/config"
	"github.com/bahadkc/deger360/internal/report"
	"github.com/bahadkc/deger360/internal/session"
	"github.com/bahadkc/deger360/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db       *gorm.DB
	svc      *claims.Service
	reports  *report.Aggregator
	sessions *session.Manager
	logger   *logger.Logger
	cfg      *config.Config
	now      func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, svc *claims.Service, reports *report.Aggregator, sessions *session.Manager, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:       db,
		svc:      svc,
		reports:  reports,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealthy := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbHealthy = sqlDB.PingContext(c.Request.Context()) == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cache":    h.reports.Stats(),
		"time":     h.now().Unix(),
	})
}

// CacheStats returns report cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	p := principal(c)
	if err := h.svc.Gate().RequireCapability(p, access.ViewReports); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.reports.Stats(),
	})
}

// CheckAdminStatus describes the signed-in staff member
func (h *Handlers) CheckAdminStatus(c *gin.Context) {
	p := principal(c)
	if err := h.svc.Gate().RequireCapability(p, access.StaffPanel); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAdmin":      true,
		"isSuperAdmin": p.Role == access.RoleSuperadmin,
		"user": gin.H{
			"id":    p.UserID,
			"email": p.Email,
			"role":  p.Role.String(),
			"name":  p.Name,
		},
	})
}

// GetActivityLogs lists the audit trail of a case
func (h *Handlers) GetActivityLogs(c *gin.Context) {
	logs, err := h.svc.ActivityLogs(c.Request.Context(), principal(c), c.Query("caseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
