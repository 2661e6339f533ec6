package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "storefront/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Storefront API
// @version 1.0
// @description Storefront backend: accounts, catalogue, checkout and order management behind one operation endpoint.
// @host localhost:4000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.LogPath, "server", cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		logger.Exit(zlog, "server stopped", err)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.Open(db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		Debug:        cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, caching and rate limiting degrade to no-ops", zap.Error(err))
	}
	cancel()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled {
		amqpPublisher := events.NewAMQPPublisher(cfg.AMQPURL, log)
		defer func() { _ = amqpPublisher.Close() }()
		publisher = amqpPublisher
	}

	store := repository.NewStore(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(store.Users(), jwtService, tokenStore, log)
	userService := service.NewUserService(store, log)
	productService := service.NewProductService(store.Products(), cacheClient, log)
	orderService := service.NewOrderService(store, productService, publisher, log)

	limiter := middleware.NewRateLimiter(cacheClient, cfg.RateLimitCapacity, cfg.RateLimitInterval, log)

	operations := handler.NewOperationHandler(log,
		handler.NewAuthHandler(authService, limiter),
		handler.NewUserHandler(userService),
		handler.NewProductHandler(productService),
		handler.NewOrderHandler(orderService),
	)

	e := echo.New()
	e.HidePort = true
	router.Register(e, router.Deps{
		Config:     cfg,
		Log:        log,
		Identity:   middleware.Identity(jwtService, tokenStore, log),
		Health:     handler.NewHealthHandler(gormDB),
		Operations: operations,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		log.Info("server listening",
			zap.String("addr", addr),
			zap.String("swagger", swaggerURL(cfg)),
			zap.Strings("operations", operations.Names()),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// swaggerURL builds the docs link. SwaggerHost may already include a scheme.
func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}
