package likes

import (
	"time"

	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/ratelimit"
	"photofeed/internal/server"
)

// RateLimit bounds like/unlike calls per user.
type RateLimit struct {
	Allower ratelimit.Allower
	Limit   int64
	Window  time.Duration
}

func SetupRouter(svc Service, rl RateLimit) *gin.Engine {
	r := server.NewEngine("likes-service")
	h := NewHandler(svc)

	r.GET("/health", h.Health)

	reads := r.Group("/")
	reads.Use(identity.OptionalAuthMiddleware())
	{
		reads.GET("/:post_id/check", h.Check)
		reads.GET("/:post_id/count", h.Count)
	}

	writes := r.Group("/")
	writes.Use(
		identity.AuthMiddleware(),
		ratelimit.Middleware(rl.Allower, ratelimit.Rule{
			Scope:  "likes",
			Limit:  rl.Limit,
			Window: rl.Window,
			Key:    func(c *gin.Context) string { return c.GetHeader(identity.HeaderUserID) },
		}),
	)
	{
		writes.POST("/:post_id", h.Like)
		writes.DELETE("/:post_id", h.Unlike)
	}
	return r
}
