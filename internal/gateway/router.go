// Package gateway implements the API Gateway service logic.
// The gateway handles session validation, service discovery, and request routing
// to backend microservices.
package gateway

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"photofeed/internal/consul"
	"photofeed/internal/metrics"
	"photofeed/internal/session"
)

// Route maps a public prefix onto a backend service.
type Route struct {
	Prefix  string
	Service string
	// Strip is removed from the path before forwarding.
	Strip   string
	Session SessionMode
}

// Routes is the public API surface.
var Routes = []Route{
	{Prefix: "/api/posts", Service: "posts-service", Strip: "/api", Session: SessionForWrites},
	{Prefix: "/api/comments", Service: "comments-service", Strip: "/api/comments", Session: SessionForWrites},
	{Prefix: "/api/likes", Service: "likes-service", Strip: "/api/likes", Session: SessionForWrites},
	{Prefix: "/api/follow", Service: "follow-service", Strip: "/api/follow", Session: SessionForWrites},
	{Prefix: "/api/feed", Service: "feed-service", Strip: "/api/feed", Session: SessionOptional},
	{Prefix: "/api/files", Service: "files-service", Strip: "/api/files", Session: SessionRequired},
}

// Config is the gateway configuration that is not about discovery or sessions.
type Config struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// SetupRouter configures and returns the gateway router
func SetupRouter(discovery consul.ServiceDiscovery, sessionMgr session.Manager, cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.Middleware("api-gateway"))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	proxyHandler := NewProxyHandler(discovery)

	r.GET("/health", proxyHandler.Health)
	metrics.Register(r)

	for _, rt := range Routes {
		g := r.Group(rt.Prefix)
		g.Use(SessionAuthMiddleware(sessionMgr, rt.Session))
		forward := proxyHandler.Forward(rt.Service, rt.Strip)
		g.Any("/*path", forward)
		g.Any("", forward)
	}

	return r
}
