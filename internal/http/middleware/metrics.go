package middleware

// Prometheus instrumentation of HTTP traffic. Labels are kept bounded: the
// path label is the registered route ("/:token"), never the raw URL, and
// unmatched requests share the "unmatched" label.

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedPath = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkbox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkbox_http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// redirects counts redirect outcomes: redirected, invalid.
	redirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_redirects_total",
			Help: "Link redirects by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, redirects)
}

// Metrics returns a Gin middleware that counts requests by method, route and
// status, observes latency by method and route, and tracks in-flight
// requests. Serve the registry with promhttp.Handler().
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CountRedirect records the outcome of one redirect request.
func CountRedirect(outcome string) {
	redirects.WithLabelValues(outcome).Inc()
}
