package database

import (
	"context"
	"fmt"
	"log/slog"

	"photofeed/internal/config"
)

// schema is idempotent; it is applied at startup when DB_AUTO_MIGRATE is set and by the integration tests.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		post_id       BIGSERIAL PRIMARY KEY,
		user_id       UUID NOT NULL,
		caption       TEXT NOT NULL DEFAULT '',
		image_key     TEXT NOT NULL,
		shutter_speed TEXT,
		iso           INTEGER CHECK (iso IS NULL OR iso > 0),
		aperture      DOUBLE PRECISION CHECK (aperture IS NULL OR aperture > 0),
		latitude      DOUBLE PRECISION CHECK (latitude IS NULL OR latitude BETWEEN -90 AND 90),
		longitude     DOUBLE PRECISION CHECK (longitude IS NULL OR longitude BETWEEN -180 AND 180),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at DESC, post_id DESC)`,
	`CREATE INDEX IF NOT EXISTS posts_user_created_idx ON posts (user_id, created_at DESC, post_id DESC)`,

	`CREATE TABLE IF NOT EXISTS likes (
		like_id    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    UUID NOT NULL,
		post_id    BIGINT NOT NULL REFERENCES posts (post_id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT likes_user_post_key UNIQUE (user_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS likes_post_idx ON likes (post_id)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id UUID NOT NULL,
		followee_id UUID NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (follower_id, followee_id),
		CONSTRAINT follows_no_self CHECK (follower_id <> followee_id)
	)`,
	`CREATE INDEX IF NOT EXISTS follows_followee_idx ON follows (followee_id)`,

	`CREATE TABLE IF NOT EXISTS comments (
		comment_id BIGSERIAL PRIMARY KEY,
		post_id    BIGINT NOT NULL REFERENCES posts (post_id) ON DELETE CASCADE,
		user_id    UUID NOT NULL,
		parent_id  BIGINT REFERENCES comments (comment_id) ON DELETE CASCADE,
		body       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_idx ON comments (post_id, created_at)`,
}

// EnsureSchema creates the tables and indexes the services rely on.
func EnsureSchema(ctx context.Context, s Service) error {
	for i, stmt := range schema {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// MigrateFromEnv applies the schema when DB_AUTO_MIGRATE is true.
func MigrateFromEnv(ctx context.Context, s Service) error {
	if !config.GetEnvBool("DB_AUTO_MIGRATE", false) {
		return nil
	}
	if err := EnsureSchema(ctx, s); err != nil {
		return err
	}
	slog.Info("database schema applied")
	return nil
}
