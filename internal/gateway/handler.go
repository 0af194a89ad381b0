package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"photofeed/internal/consul"
)

// ProxyHandler handles reverse proxy requests to backend services
type ProxyHandler struct {
	discovery consul.ServiceDiscovery
	transport http.RoundTripper
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(discovery consul.ServiceDiscovery) *ProxyHandler {
	return &ProxyHandler{discovery: discovery, transport: http.DefaultTransport}
}

// Forward proxies to one healthy instance of serviceName, removing stripPrefix from the path.
// Example: /api/feed/users/x/posts -> /users/x/posts on the feed service.
func (h *ProxyHandler) Forward(serviceName, stripPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("upstream_service", serviceName)

		instance, err := h.discovery.DiscoverOne(serviceName)
		if err != nil {
			slog.Error("Failed to discover service", "service", serviceName, "error", err)
			status := http.StatusInternalServerError
			if errors.Is(err, consul.ErrNoInstances) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{
				"success": false,
				"error":   serviceName + " unavailable",
			})
			return
		}

		targetURL, err := url.Parse(instance.BaseURL())
		if err != nil {
			slog.Error("Failed to parse target URL", "service", serviceName, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal server error",
			})
			return
		}

		proxy := httputil.NewSingleHostReverseProxy(targetURL)
		proxy.Transport = h.transport

		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("Proxy error", "service", serviceName, "error", err, "request_id", c.GetString("request_id"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"error":"bad gateway"}`))
		}

		originalDirector := proxy.Director
		proxy.Director = func(req *http.Request) {
			originalDirector(req)
			req.Host = targetURL.Host

			if stripPrefix != "" {
				req.URL.Path = strings.TrimPrefix(req.URL.Path, stripPrefix)
				req.URL.RawPath = ""
				if req.URL.Path == "" {
					req.URL.Path = "/"
				}
			}

			slog.Debug("Proxying",
				"method", req.Method,
				"from", c.Request.URL.Path,
				"to", req.URL.Host+req.URL.Path,
			)
		}

		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// Health is the gateway health check handler
func (h *ProxyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "api-gateway",
	})
}
