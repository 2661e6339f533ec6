package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.LogPath, "worker", cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.AMQPURL, zlog, func(_ context.Context, ev events.OrderPlacedEvent) error {
		zlog.Info("order placed",
			zap.String("order_id", ev.OrderID),
			zap.String("user_id", ev.UserID),
			zap.String("total", ev.Total.StringFixed(2)),
			zap.Int("item_count", ev.ItemCount),
			zap.Time("placed_at", ev.PlacedAt),
		)
		return nil
	})

	zlog.Info("worker started", zap.String("queue", events.OrderPlacedQueue))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Exit(zlog, "worker stopped", err)
	}
	zlog.Info("worker stopped")
}
