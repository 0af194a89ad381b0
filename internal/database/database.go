// Package database owns the Postgres connections shared by the services:
// a pgx pool for hand-written SQL and a gorm handle for the ORM-backed packages.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

// Postgres error codes the services branch on.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Service represents a service that interacts with a database.
type Service interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Pool exposes the underlying pool for transactions and the ORM bridge.
	Pool() *pgxpool.Pool

	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the database connection.
	Close() error
}

type service struct {
	pool *pgxpool.Pool
}

// DSNFromEnv builds a connection URL from the DB_* variables.
func DSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("DB_USERNAME"), os.Getenv("DB_PASSWORD")),
		Host:   fmt.Sprintf("%s:%s", envOr("DB_HOST", "localhost"), envOr("DB_PORT", "5432")),
		Path:   "/" + envOr("DB_DATABASE", "photofeed"),
	}
	q := u.Query()
	q.Set("sslmode", envOr("DB_SSLMODE", "disable"))
	if schema := os.Getenv("DB_SCHEMA"); schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// New connects using DSNFromEnv and exits the process when the database is unreachable.
func New() Service {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewWithDSN(ctx, DSNFromEnv())
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	return s
}

// NewWithDSN opens a pool and retries the first ping with exponential backoff.
func NewWithDSN(ctx context.Context, dsn string) (Service, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if max, err := strconv.Atoi(os.Getenv("DB_MAX_CONNS")); err == nil && max > 0 {
		cfg.MaxConns = int32(max)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	var last error
	for attempt := 0; attempt < 6; attempt++ {
		if last = pool.Ping(ctx); last == nil {
			return &service{pool: pool}, nil
		}
		slog.Warn("database not ready", "attempt", attempt+1, "error", last)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping: %w", errors.Join(last, ctx.Err()))
		case <-time.After(time.Duration(1<<attempt) * 250 * time.Millisecond):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("ping: %w", last)
}

func (s *service) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *service) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return s.pool.Query(ctx, sql, args...)
}

func (s *service) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.pool.Exec(ctx, sql, args...)
}

func (s *service) Pool() *pgxpool.Pool { return s.pool }

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = strconv.Itoa(int(st.TotalConns()))
	stats["idle_connections"] = strconv.Itoa(int(st.IdleConns()))
	stats["acquired_connections"] = strconv.Itoa(int(st.AcquiredConns()))
	stats["max_connections"] = strconv.Itoa(int(st.MaxConns()))

	if st.AcquiredConns() >= st.MaxConns() {
		stats["message"] = "The database is experiencing heavy load."
	}
	return stats
}

func (s *service) Close() error {
	slog.Info("disconnected from database")
	s.pool.Close()
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool { return hasCode(err, CodeUniqueViolation) }

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool { return hasCode(err, CodeForeignKeyViolation) }

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error) bool { return hasCode(err, CodeCheckViolation) }

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
