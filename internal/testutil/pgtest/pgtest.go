// Package pgtest starts a throwaway Postgres container for repository tests.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"photofeed/internal/database"
)

// New starts postgres:16-alpine, applies the schema and returns a connected service.
// The test is skipped under -short since it needs a container runtime.
func New(t *testing.T) database.Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("photofeed"),
		postgres.WithUsername("photofeed"),
		postgres.WithPassword("photofeed"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

// Truncate empties every table between subtests.
func Truncate(t *testing.T, db database.Service) {
	t.Helper()
	_, err := db.Exec(context.Background(), `TRUNCATE posts, likes, follows, comments RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
