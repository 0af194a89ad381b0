// Package server wires the HTTP lifecycle every photofeed service shares:
// timeouts from the environment, tracing, Consul registration and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"photofeed/internal/config"
	"photofeed/internal/consul"
)

// Config holds server configuration
type Config struct {
	Name            string
	Host            string
	Port            int
	Tags            []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfigFromEnv loads the configuration of service name. portKey and hostKey
// name the variables holding its port and advertised host.
func LoadConfigFromEnv(name, portKey string, defaultPort int, hostKey string) Config {
	return Config{
		Name:            name,
		Host:            config.GetEnvOrDefault(hostKey, name),
		Port:            config.GetEnvInt(portKey, defaultPort),
		ReadTimeout:     config.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    config.GetEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     config.GetEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: config.GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// ServiceID is the stable Consul id, so restarts replace the previous registration.
func (c Config) ServiceID() string {
	return fmt.Sprintf("%s-%s", c.Name, c.Host)
}

// NewServer creates the http.Server for handler with tracing enabled.
func NewServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(handler, cfg.Name),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Run serves handler until ctx is cancelled or SIGINT/SIGTERM arrives.
// When registrar is non-nil the service is registered with a /health check
// before serving and deregistered before shutdown.
func Run(ctx context.Context, cfg Config, handler http.Handler, registrar consul.ServiceRegistrar) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if registrar != nil {
		if err := register(registrar, cfg); err != nil {
			return err
		}
	}

	srv := NewServer(cfg, handler)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "service", cfg.Name, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		stop()
		slog.Info("shutting down gracefully", "service", cfg.Name)
	}

	if registrar != nil {
		if err := registrar.Deregister(cfg.ServiceID()); err != nil {
			slog.Warn("consul deregister failed", "service_id", cfg.ServiceID(), "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped", "service", cfg.Name)
	return nil
}

// RegistrarFromEnv returns the Consul client unless CONSUL_ENABLED is false,
// in which case services run unregistered.
func RegistrarFromEnv() (consul.ServiceRegistrar, error) {
	if !config.GetEnvBool("CONSUL_ENABLED", true) {
		return nil, nil
	}
	c, err := consul.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return c, nil
}

func register(registrar consul.ServiceRegistrar, cfg Config) error {
	id := cfg.ServiceID()
	// Clean up a registration left behind by a crash.
	_ = registrar.Deregister(id)

	err := registrar.Register(&consul.ServiceConfig{
		ID:      id,
		Name:    cfg.Name,
		Address: cfg.Host,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
		Check: &consul.HealthCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", cfg.Host, cfg.Port),
			Interval: "10s",
			Timeout:  "3s",
		},
	})
	if err != nil {
		return fmt.Errorf("consul register %s: %w", id, err)
	}
	slog.Info("registered in consul", "service_id", id)
	return nil
}
