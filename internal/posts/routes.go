package posts

import (
	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/server"
)

// SetupRouter mounts the posts API. Reads are public; writes need X-User-ID.
func SetupRouter(h *Handler) *gin.Engine {
	r := server.NewEngine("posts-service")
	r.GET("/health", h.Health)

	public := r.Group("/posts")
	public.GET("/:id", h.GetPost)

	authed := r.Group("/posts")
	authed.Use(identity.AuthMiddleware())
	{
		authed.POST("", h.CreatePost)
		authed.DELETE("/:id", h.DeletePost)
	}
	return r
}
