package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string
	DatabaseURL  string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize      int
	ReportCacheTTL time.Duration

	// Session settings
	SessionSecret      string
	SessionTTL         time.Duration
	CookieName         string
	ForceSecureCookies bool

	// Storage settings
	StorageBackend string
	StoragePath    string
	GCSBucket      string
	MaxUploadSize  int64
	UploadWorkers  int

	// Site settings
	WebRoot         string
	AdminPath       string
	PortalURL       string
	LeadEmailDomain string
	// CORSOrigins may call the API with credentials. Empty means any
	// origin, without credentials.
	CORSOrigins []string

	// Bootstrap superadmin
	SuperadminEmail    string
	SuperadminPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/deger360.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		CookieName:         getEnv("COOKIE_NAME", "deger360_session"),
		StorageBackend:     getEnv("STORAGE_BACKEND", "local"),
		StoragePath:        getEnv("STORAGE_PATH", "./data/uploads"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		WebRoot:            getEnv("WEB_ROOT", "./web"),
		AdminPath:          getEnv("ADMIN_PATH", "/sys-admin-panel-secure-7x9k2m"),
		PortalURL:          getEnv("PORTAL_URL", "https://deger360.net/portal/giris"),
		LeadEmailDomain:    getEnv("LEAD_EMAIL_DOMAIN", "deger360.net"),
		SuperadminEmail:    getEnv("SUPERADMIN_EMAIL", ""),
		SuperadminPassword: getEnv("SUPERADMIN_PASSWORD", ""),
	}

	// Parse integer values
	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	reportTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}
	cfg.ReportCacheTTL = time.Duration(reportTTL) * time.Minute

	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL", "168"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = time.Duration(sessionTTL) * time.Hour

	maxUpload, err := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	cfg.MaxUploadSize = int64(maxUpload) << 20

	cfg.UploadWorkers, err = strconv.Atoi(getEnv("UPLOAD_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_CONCURRENCY: %w", err)
	}

	cfg.ForceSecureCookies = getEnv("FORCE_SECURE_COOKIES", "false") == "true"
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGIN", ""))

	if cfg.SessionSecret == "" {
		if cfg.LogLevel != "debug" {
			return nil, fmt.Errorf("SESSION_SECRET is required")
		}
		cfg.SessionSecret = "dev-only-session-secret"
	}

	if cfg.StorageBackend == "gcs" && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND=gcs")
	}

	return cfg, nil
}

// splitList parses a comma separated value, dropping empty entries
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimRight(strings.TrimSpace(part), "/"); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
