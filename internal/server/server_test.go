package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/cache"
	"github.com/bahadkc/deger360/internal/config"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/internal/testutil"
	"github.com/bahadkc/deger360/pkg/logger"
	"github.com/gin-gonic/gin"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	webRoot := t.TempDir()
	panel := filepath.Join(webRoot, "admin")
	if err := os.MkdirAll(panel, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(panel, "index.html"), []byte("<h1>panel</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		LogLevel:      "error",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		CookieName:    "deger360_session",
		WebRoot:       webRoot,
		AdminPath:     "/gizli-panel",
		CORSOrigins:   []string{"https://deger360.net"},
		MaxUploadSize: 1 << 20,
	}
	return New(cfg, testutil.NewDB(t), cache.NewCache(10, time.Minute), store, logger.NewNop())
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestAdminPath(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantHeader string
	}{
		{"secret path serves panel", "/gizli-panel/", http.StatusOK, ""},
		{"direct admin path is hidden", "/admin/", http.StatusFound, "/404"},
		{"nested admin path is hidden", "/admin/musteriler", http.StatusFound, "/404"},
		{"api is untouched", "/api/health", http.StatusOK, ""},
		{"similar prefix is untouched", "/administrator", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, "GET", tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantHeader != "" && w.Header().Get("Location") != tt.wantHeader {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.wantHeader)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name            string
		origin          string
		wantOrigin      string
		wantCredentials string
	}{
		{"configured origin", "https://deger360.net", "https://deger360.net", "true"},
		{"unknown origin", "https://evil.example", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("OPTIONS", "/api/login-admin", nil)
			req.Header.Set("Origin", tt.origin)
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}

func TestCORSWithoutConfiguredOrigins(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "https://deger360.net")
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Allow-Credentials = %q, want empty", got)
	}
}
