package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/database"
	"photofeed/internal/feed"
	"photofeed/internal/logger"
	"photofeed/internal/server"
	"photofeed/internal/storage"
	"photofeed/internal/telemetry"
)

const serviceName = "feed-service"

func main() {
	logger.SetDefault(logger.New(serviceName))

	if err := run(context.Background()); err != nil {
		slog.Error("feed service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
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

	svc := feed.NewService(feed.NewRepository(db), images)
	router := feed.SetupRouter(feed.NewHandler(svc))

	cfg := server.LoadConfigFromEnv(serviceName, "FEED_SERVICE_PORT", 8087, "FEED_SERVICE_HOST")
	cfg.Tags = []string{"feed", "read"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
