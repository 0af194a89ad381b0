package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/comments"
	"photofeed/internal/database"
	"photofeed/internal/kafka"
	"photofeed/internal/logger"
	"photofeed/internal/server"
	"photofeed/internal/telemetry"
)

const serviceName = "comments-service"

func main() {
	log := logger.New(serviceName)
	logger.SetDefault(log)

	if err := run(context.Background(), log); err != nil {
		slog.Error("comments service failed", "error", err)
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
	orm, err := database.OpenORM(db)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := kafka.NewPublisherFromEnv(serviceName, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	svc := comments.NewService(comments.NewRepository(orm), publisher)
	router := comments.SetupRouter(svc)

	cfg := server.LoadConfigFromEnv(serviceName, "COMMENTS_SERVICE_PORT", 8083, "COMMENTS_SERVICE_HOST")
	cfg.Tags = []string{"comments", "social"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
