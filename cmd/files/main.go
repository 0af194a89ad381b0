package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/config"
	"photofeed/internal/files"
	"photofeed/internal/logger"
	"photofeed/internal/server"
	"photofeed/internal/storage"
	"photofeed/internal/telemetry"
)

const serviceName = "files-service"

func main() {
	logger.SetDefault(logger.New(serviceName))

	if err := run(context.Background()); err != nil {
		slog.Error("files service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	shutdownTracing, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	storageCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := storage.NewFromEnv(storageCtx)
	if err != nil {
		return err
	}
	if config.GetEnvBool("S3_CREATE_BUCKET", false) {
		if err := store.EnsureBucketExists(storageCtx); err != nil {
			return err
		}
	}

	router := files.SetupRouter(files.NewService(store))

	cfg := server.LoadConfigFromEnv(serviceName, "FILES_SERVICE_PORT", 8086, "FILES_SERVICE_HOST")
	cfg.Tags = []string{"files", "storage", "uploads", "downloads"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
