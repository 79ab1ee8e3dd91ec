package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/cache"
	"github.com/bahadkc/deger360/internal/claims"
	"github.com/bahadkc/deger360/internal/config"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/server"
	"github.com/bahadkc/deger360/internal/storage"
	"github.com/bahadkc/deger360/pkg/logger"
)

func main() {
	var migrate, bootstrap bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations")
	flag.BoolVar(&bootstrap, "bootstrap-superadmin", false, "Create the superadmin from SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
	}

	if bootstrap {
		if cfg.SuperadminEmail == "" || cfg.SuperadminPassword == "" {
			log.Fatal("SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD are required")
		}
		svc := claims.NewService(db, access.NewGate(db), store, log, claims.Options{LeadEmailDomain: cfg.LeadEmailDomain})
		created, err := svc.BootstrapSuperadmin(ctx, cfg.SuperadminEmail, cfg.SuperadminPassword)
		if err != nil {
			log.Fatal("Failed to bootstrap superadmin", "error", err)
		}
		log.Info("Superadmin bootstrap finished", "email", cfg.SuperadminEmail, "created", created)
		return
	}

	reportCache := cache.NewCache(cfg.CacheSize, cfg.ReportCacheTTL)

	srv := server.New(cfg, db, reportCache, store, log)

	log.Info("Starting deger360",
		"host", cfg.Host,
		"port", cfg.Port,
		"storage", cfg.StorageBackend,
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed to start", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "gcs" {
		return storage.NewGCS(ctx, cfg.GCSBucket)
	}
	return storage.NewLocal(cfg.StoragePath)
}
