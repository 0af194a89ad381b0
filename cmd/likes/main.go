package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/config"
	"photofeed/internal/database"
	"photofeed/internal/kafka"
	"photofeed/internal/likes"
	"photofeed/internal/logger"
	"photofeed/internal/ratelimit"
	"photofeed/internal/redisx"
	"photofeed/internal/server"
	"photofeed/internal/telemetry"
)

const serviceName = "likes-service"

func main() {
	log := logger.New(serviceName)
	logger.SetDefault(log)

	if err := run(context.Background(), log); err != nil {
		slog.Error("likes service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db := database.New()
	defer db.Close()
	if err := database.MigrateFromEnv(ctx, db); err != nil {
		return err
	}

	publisher, closePublisher, err := kafka.NewPublisherFromEnv(serviceName, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	rdb := redisx.OpenFromEnv()
	defer rdb.Close()
	var limiter ratelimit.Allower
	if err := redisx.Ping(ctx, rdb); err != nil {
		// likes keep working without Redis, just unthrottled
		slog.Warn("redis unavailable, like rate limiting disabled", "error", err)
	} else {
		limiter = ratelimit.New(rdb)
	}

	svc := likes.NewService(db, publisher)
	router := likes.SetupRouter(svc, likes.RateLimit{
		Allower: limiter,
		Limit:   int64(config.GetEnvInt("LIKES_RATE_LIMIT", 30)),
		Window:  config.GetEnvDuration("LIKES_RATE_WINDOW", time.Minute),
	})

	cfg := server.LoadConfigFromEnv(serviceName, "LIKES_SERVICE_PORT", 8084, "LIKES_SERVICE_HOST")
	cfg.Tags = []string{"likes", "social"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
