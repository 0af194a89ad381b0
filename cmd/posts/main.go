package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/database"
	"photofeed/internal/kafka"
	"photofeed/internal/logger"
	"photofeed/internal/posts"
	"photofeed/internal/redisx"
	"photofeed/internal/server"
	"photofeed/internal/storage"
	"photofeed/internal/telemetry"
)

const serviceName = "posts-service"

func main() {
	log := logger.New(serviceName)
	logger.SetDefault(log)

	if err := run(context.Background(), log); err != nil {
		slog.Error("posts service failed", "error", err)
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

	storageCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	images, err := storage.NewFromEnv(storageCtx)
	cancel()
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		slog.Warn("object storage not configured, serving posts without image URLs")
	case err != nil:
		return err
	}

	rdb := redisx.OpenFromEnv()
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		slog.Warn("redis unavailable, post cache will miss", "error", err)
	}

	publisher, closePublisher, err := kafka.NewPublisherFromEnv(serviceName, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	svc := posts.NewService(posts.NewRepository(db), rdb, images, publisher)
	router := posts.SetupRouter(posts.NewHandler(svc))

	cfg := server.LoadConfigFromEnv(serviceName, "PORT", 8082, "POSTS_SERVICE_HOST")
	cfg.Tags = []string{"posts", "content", "api"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
