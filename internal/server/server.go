package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/api"
	"github.com/bahadkc/deger360/internal/cache"
	"github.com/bahadkc/deger360/internal/claims"
	"github.com/bahadkc/deger360/internal/config"
	"github.com/bahadkc/deger360/internal/report"
	"github.com/bahadkc/deger360/internal/session"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// adminPrefix is the internal mount point of the staff panel
const adminPrefix = "/admin"

type Server struct {
	cfg    *config.Config
	db     *gorm.DB
	store  storage.Store
	logger *logger.Logger
	router *gin.Engine
	// handler wraps router with the admin path rewrite
	handler http.Handler
}

func New(cfg *config.Config, db *gorm.DB, reportCache cache.Cache, store storage.Store, logger *logger.Logger) *Server {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadSize

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware(cfg.CORSOrigins))

	gate := access.NewGate(db)
	svc := claims.NewService(db, gate, store, logger, claims.Options{
		LeadEmailDomain: cfg.LeadEmailDomain,
		MaxUploadSize:   cfg.MaxUploadSize,
		UploadWorkers:   cfg.UploadWorkers,
	})
	reports := report.NewAggregator(reportCache, report.NewGormFetcher(db), gate, logger)
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieName, cfg.ForceSecureCookies)

	api.SetupRoutes(router, db, svc, reports, sessions, logger, cfg)

	// Staff panel assets
	panelDir := filepath.Join(cfg.WebRoot, "admin")
	if info, err := os.Stat(panelDir); err == nil && info.IsDir() {
		router.Static(adminPrefix, panelDir)
	} else {
		logger.Warn("Staff panel assets not found", "dir", panelDir)
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Not found",
		})
	})

	return &Server{
		cfg:     cfg,
		db:      db,
		store:   store,
		logger:  logger,
		router:  router,
		handler: adminPathHandler(cfg.AdminPath, router),
	}
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", "error", err)
		}
	}()

	s.logger.Info("Server started", "address", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("Failed to close storage client", "error", err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error("Failed to close database", "error", err)
		}
	}

	s.logger.Info("Server exited gracefully")
	return nil
}

func loggingMiddleware(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("HTTP Request",
			"client_ip", clientIP,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

// corsMiddleware allows credentialed calls from the configured origins only.
// With no origins configured any origin may call, without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if len(allowed) == 0 {
			header.Set("Access-Control-Allow-Origin", "*")
		} else if origin := c.Request.Header.Get("Origin"); allowed[origin] {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		header.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// adminPathHandler serves the staff panel only under the configured
// secret path. Requests to the secret path are rewritten to /admin and
// direct requests to /admin are sent to /404.
func adminPathHandler(secretPath string, next http.Handler) http.Handler {
	secretPath = strings.TrimRight(secretPath, "/")
	if secretPath == "" || secretPath == adminPrefix {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		switch {
		case underPrefix(p, secretPath):
			r2 := new(http.Request)
			*r2 = *r
			r2.URL = new(url.URL)
			*r2.URL = *r.URL
			r2.URL.Path = adminPrefix + strings.TrimPrefix(p, secretPath)
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
		case underPrefix(p, adminPrefix):
			http.Redirect(w, r, "/404", http.StatusFound)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func underPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
