package feed

import (
	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/server"
)

// SetupRouter serves the feed. The viewer is optional everywhere; followedOnly needs one.
func SetupRouter(h *Handler) *gin.Engine {
	r := server.NewEngine("feed-service")

	r.GET("/health", h.Health)

	api := r.Group("/")
	api.Use(identity.OptionalAuthMiddleware())
	{
		api.GET("/", h.List)
		api.GET("/users/:user_id/posts", h.ListByUser)
	}
	return r
}
