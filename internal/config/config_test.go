package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ReportCacheTTL != 5*time.Minute {
		t.Errorf("ReportCacheTTL = %v, want 5m", cfg.ReportCacheTTL)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 168h", cfg.SessionTTL)
	}
	if cfg.AdminPath != "/sys-admin-panel-secure-7x9k2m" {
		t.Errorf("AdminPath = %q", cfg.AdminPath)
	}
	if cfg.MaxUploadSize != 25<<20 {
		t.Errorf("MaxUploadSize = %d, want 25MB", cfg.MaxUploadSize)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"cache size", "CACHE_SIZE", "lots"},
		{"report ttl", "REPORT_CACHE_TTL", "5m"},
		{"session ttl", "SESSION_TTL", "week"},
		{"upload size", "MAX_UPLOAD_SIZE", "big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", "s3cret")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.val)
			}
		})
	}
}

func TestLoadRequiresSecretOutsideDebug(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("LOG_LEVEL", "info")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should require SESSION_SECRET")
	}

	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() in debug error = %v", err)
	}
	if cfg.SessionSecret == "" {
		t.Error("debug mode should fall back to a development secret")
	}
}

func TestLoadGCSNeedsBucket(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "gcs")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without GCS_BUCKET")
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CORS_ORIGIN", "https://deger360.net/, https://www.deger360.net,")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://deger360.net" || cfg.CORSOrigins[1] != "https://www.deger360.net" {
		t.Errorf("CORSOrigins = %q", cfg.CORSOrigins)
	}
}
