// Package redisx opens the Redis client shared by sessions, the post cache and the rate limiter.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"photofeed/internal/config"
)

// OpenFromEnv builds a client from REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
func OpenFromEnv() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password:     config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:           config.GetEnvInt("REDIS_DB", 0),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Ping reports whether the server answers within a second.
func Ping(ctx context.Context, rdb redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
