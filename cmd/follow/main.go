package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/database"
	"photofeed/internal/follow"
	"photofeed/internal/logger"
	"photofeed/internal/server"
	"photofeed/internal/telemetry"
)

const serviceName = "follow-service"

func main() {
	logger.SetDefault(logger.New(serviceName))

	if err := run(context.Background()); err != nil {
		slog.Error("follow service failed", "error", err)
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
	orm, err := database.OpenORM(db)
	if err != nil {
		return err
	}

	router := follow.SetupRouter(follow.NewService(follow.NewRepository(orm)))

	cfg := server.LoadConfigFromEnv(serviceName, "FOLLOW_SERVICE_PORT", 8085, "FOLLOW_SERVICE_HOST")
	cfg.Tags = []string{"follow", "social"}

	registrar, err := server.RegistrarFromEnv()
	if err != nil {
		return err
	}
	return server.Run(ctx, cfg, router, registrar)
}
