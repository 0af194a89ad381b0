// Package ratelimit implements a Redis fixed-window limiter and its gin middleware.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"photofeed/internal/metrics"
)

// Allower decides whether one more hit on key fits into limit per window.
type Allower interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Limiter counts hits with INCR and starts the window with EXPIRE.
type Limiter struct {
	R redis.Cmdable
}

func New(r redis.Cmdable) *Limiter { return &Limiter{R: r} }

func (l *Limiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := "rl:" + key
	pipe := l.R.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// Rule configures the middleware.
type Rule struct {
	Scope  string
	Limit  int64
	Window time.Duration
	// Key extracts the caller identity; an empty key skips limiting.
	Key func(*gin.Context) string
}

// Middleware rejects callers over the rule with 429. Limiter errors let the request
// through so a Redis outage does not take the endpoint down.
func Middleware(a Allower, rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.Key(c)
		if key == "" || a == nil {
			c.Next()
			return
		}

		ok, n, err := a.Allow(c.Request.Context(), rule.Scope+":"+key, rule.Limit, rule.Window)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "scope", rule.Scope, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))
		remaining := rule.Limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !ok {
			metrics.RateLimited.WithLabelValues(rule.Scope).Inc()
			c.Header("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
