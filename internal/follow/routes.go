package follow

import (
	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/server"
)

func SetupRouter(svc Service) *gin.Engine {
	r := server.NewEngine("follow-service")
	h := NewHandler(svc)

	// Health
	r.GET("/health", h.Health)

	// Public graph reads
	r.GET("/:user_id/followers/count", h.FollowersCount)
	r.GET("/:user_id/following/count", h.FollowingCount)
	r.GET("/:user_id/followers", h.Followers)
	r.GET("/:user_id/following", h.Following)

	authed := r.Group("/")
	authed.Use(identity.AuthMiddleware())
	{
		// Follow / unfollow
		authed.POST("/", h.Follow)
		authed.DELETE("/:user_id", h.Unfollow)

		// Check if I follow user
		authed.GET("/:user_id/following/me", h.IsFollowing)
	}
	return r
}
