package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"photofeed/internal/config"
	"photofeed/internal/consul"
	"photofeed/internal/gateway"
	"photofeed/internal/logger"
	"photofeed/internal/redisx"
	"photofeed/internal/server"
	"photofeed/internal/session"
	"photofeed/internal/telemetry"
)

const serviceName = "api-gateway"

func main() {
	log := logger.New(serviceName)
	logger.SetDefault(log)

	if err := run(context.Background(), log); err != nil {
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	discovery, err := discoveryFromEnv()
	if err != nil {
		return err
	}

	rdb := redisx.OpenFromEnv()
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		return err
	}
	sessionMgr := session.NewManager(session.NewRedisStore(rdb))

	router := gateway.SetupRouter(discovery, sessionMgr, gateway.Config{
		AllowedOrigins: splitList(config.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", gateway.DefaultOrigin)),
		Logger:         log,
	})

	cfg := server.LoadConfigFromEnv(serviceName, "GATEWAY_PORT", 8080, "GATEWAY_HOST")
	// the gateway resolves others and is not itself discovered
	return server.Run(ctx, cfg, router, nil)
}

// discoveryFromEnv uses Consul unless CONSUL_ENABLED is false, in which case
// upstreams come from UPSTREAM_* variables.
func discoveryFromEnv() (consul.ServiceDiscovery, error) {
	if config.GetEnvBool("CONSUL_ENABLED", true) {
		return consul.NewFromEnv()
	}
	names := make([]string, 0, len(gateway.Routes))
	for _, rt := range gateway.Routes {
		names = append(names, rt.Service)
	}
	slog.Info("consul disabled, using static upstreams")
	return consul.StaticFromEnv(names...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
