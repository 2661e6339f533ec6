package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.LogPath, "seed", cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gormDB, err := db.Open(db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		Debug:        cfg.Debug,
	})
	if err != nil {
		logger.Exit(zlog, "failed to connect to database", err)
	}

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		logger.Exit(zlog, "failed to run migrations", err)
	}

	res, err := seed.Run(context.Background(), repository.NewStore(gormDB), zlog)
	if err != nil {
		logger.Exit(zlog, "failed to seed", err)
	}

	zlog.Info("demo accounts ready",
		zap.Strings("emails", []string{"admin@example.com", "customer@example.com"}),
		zap.String("password", seed.DefaultPassword),
		zap.Int("products", res.ProductsCreated+res.ProductsUpdated),
	)
}
