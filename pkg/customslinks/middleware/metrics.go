package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	linkRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_redirects_total",
			Help: "Total successful link resolutions",
		},
		[]string{"domain"},
	)

	linksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total links created",
		},
	)
)

// Metrics records per-request counters and latency. The route
// template path is used as the label to keep cardinality bounded
// (/abc123 becomes /:code).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordRedirect counts one successful resolution
func RecordRedirect(domain string) {
	linkRedirectsTotal.WithLabelValues(domain).Inc()
}

// RecordLinkCreated counts one created link
func RecordLinkCreated() {
	linksCreatedTotal.Inc()
}
