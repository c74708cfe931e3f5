package middlewares

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
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	issuesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issues_created_total",
			Help: "Issues reported by citizens",
		},
		[]string{"issue_type"},
	)

	issueStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_status_transitions_total",
			Help: "Admin status changes applied to issues",
		},
		[]string{"from", "to"},
	)
)

// MetricsMiddleware records request counts and latency per route pattern.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordIssueCreated counts a newly reported issue.
func RecordIssueCreated(issueType string) {
	issuesCreatedTotal.WithLabelValues(issueType).Inc()
}

// RecordStatusTransition counts an applied status change.
func RecordStatusTransition(from, to string) {
	issueStatusTransitionsTotal.WithLabelValues(from, to).Inc()
}
