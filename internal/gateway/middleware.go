package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photofeed/internal/identity"
	"photofeed/internal/server"
	"photofeed/internal/session"
)

// SessionCookie carries the session id issued by the identity provider.
const SessionCookie = "session_id"

// SessionMode says how a route treats a missing or invalid session.
type SessionMode int

const (
	// SessionRequired rejects the request with 401.
	SessionRequired SessionMode = iota
	// SessionOptional forwards it anonymously.
	SessionOptional
	// SessionForWrites requires a session for anything but GET, HEAD and OPTIONS.
	SessionForWrites
)

// SessionAuthMiddleware resolves the session cookie and injects the identity
// headers services trust. Headers sent by the client are always dropped first.
func SessionAuthMiddleware(sessionMgr session.Manager, mode SessionMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(identity.HeaderUserID)
		c.Request.Header.Del(identity.HeaderUserEmail)

		required := mode == SessionRequired || mode == SessionForWrites && !safeMethod(c.Request.Method)

		sess, err := lookupSession(c, sessionMgr)
		if err != nil {
			if !required {
				c.Next()
				return
			}
			slog.Warn("rejected request without valid session",
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "must be logged in",
			})
			return
		}

		c.Set("user_id", sess.UserID)
		c.Set("email", sess.Email)

		c.Request.Header.Set(identity.HeaderUserID, sess.UserID)
		if sess.Email != "" {
			c.Request.Header.Set(identity.HeaderUserEmail, sess.Email)
		}
		c.Next()
	}
}

var errNoCookie = errors.New("no session cookie")

func lookupSession(c *gin.Context, sessionMgr session.Manager) (*session.Session, error) {
	sessionID, err := c.Cookie(SessionCookie)
	if err != nil || sessionID == "" {
		return nil, errNoCookie
	}
	// Get rejects expired sessions itself.
	return sessionMgr.Get(c.Request.Context(), sessionID)
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// DefaultOrigin is the local web client.
const DefaultOrigin = "http://localhost:5173"

// CORSMiddleware allows the web client origins with credentials.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{DefaultOrigin}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "Cache-Control", "X-Requested-With", server.RequestIDHeader},
		ExposeHeaders:    []string{server.RequestIDHeader, "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestIDMiddleware keeps an incoming X-Request-ID or mints one, and forwards it upstream.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(server.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Request.Header.Set(server.RequestIDHeader, requestID)
		c.Writer.Header().Set(server.RequestIDHeader, requestID)

		c.Next()
	}
}

// LoggingMiddleware logs all requests passing through the gateway with structured JSON
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"response_size", c.Writer.Size(),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if userID, exists := c.Get("user_id"); exists {
			attrs = append(attrs, "user_id", userID)
		}
		if upstream, exists := c.Get("upstream_service"); exists {
			attrs = append(attrs, "upstream_service", upstream)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("Request failed - server error", attrs...)
		case status >= 400:
			logger.Warn("Request failed - client error", attrs...)
		default:
			logger.Info("Request completed", attrs...)
		}
	}
}
