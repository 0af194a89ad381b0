package comments

import (
	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/server"
)

func SetupRouter(svc Service) *gin.Engine {
	r := server.NewEngine("comments-service")
	h := NewHandler(svc)

	r.GET("/health", h.Health)

	r.GET("/post/:post_id", h.List)
	r.GET("/post/:post_id/count", h.Count)

	authed := r.Group("/")
	authed.Use(identity.AuthMiddleware())
	{
		authed.POST("/", h.Create)
		authed.PATCH("/:id", h.Update)
		authed.DELETE("/:id", h.Delete)
	}
	return r
}
