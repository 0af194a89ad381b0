// Package metrics holds the Prometheus collectors shared by the photofeed services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofeed_http_requests_total",
			Help: "Total number of HTTP requests by service, route, method and status",
		},
		[]string{"service", "route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photofeed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "route", "method"},
	)

	// Domain metrics
	FeedPagesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofeed_feed_pages_total",
			Help: "Feed pages served, labelled by whether the page was followed-only",
		},
		[]string{"followed_only"},
	)

	FeedPageSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photofeed_feed_page_size",
			Help:    "Number of posts returned per feed page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	LikesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofeed_likes_toggled_total",
			Help: "Like mutations by action (like, unlike) and outcome",
		},
		[]string{"action", "outcome"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofeed_rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter",
		},
		[]string{"scope"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photofeed_events_published_total",
			Help: "Engagement events handed to the broker by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(FeedPagesServed)
	prometheus.MustRegister(FeedPageSize)
	prometheus.MustRegister(LikesToggled)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(EventsPublished)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Register mounts GET /metrics on r.
func Register(r gin.IRoutes) {
	r.GET("/metrics", gin.WrapH(Handler()))
}

// Middleware records request count and latency per matched route.
func Middleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(service, route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(service, route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to the outcome label used by the domain counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
