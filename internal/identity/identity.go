// Package identity reads the caller identity the gateway injects after session validation.
// Services behind the gateway trust X-User-ID and nothing else.
package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderUserID carries the verified user id.
	HeaderUserID = "X-User-ID"
	// HeaderUserEmail carries the email of the session, when known.
	HeaderUserEmail = "X-User-Email"

	contextKey = "user_id"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AuthMiddleware rejects requests without a valid X-User-ID with 401.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "must be logged in",
			})
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "invalid user id",
			})
			return
		}

		c.Set(contextKey, userID)
		c.Set("email", c.GetHeader(HeaderUserEmail))
		c.Next()
	}
}

// OptionalAuthMiddleware records the user when the header is present and valid.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := uuid.Parse(c.GetHeader(HeaderUserID)); err == nil {
			c.Set(contextKey, userID)
			c.Set("email", c.GetHeader(HeaderUserEmail))
		}
		c.Next()
	}
}

// GetUserID is a helper to extract user_id from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
