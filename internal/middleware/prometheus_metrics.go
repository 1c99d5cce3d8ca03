package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
)

// unmatchedRoute labels requests that hit no route, keeping path cardinality bounded
const unmatchedRoute = "unmatched"

// MetricsMiddleware collects HTTP metrics for Prometheus. Paths are labelled
// by route template (/api/v1/posts/:id), not by the raw URL.
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}

		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		start := time.Now()
		c.Next()

		// Use numeric status code so queries like status=~"5.." work
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path, status).Observe(float64(size))
		}
		if c.Writer.Status() >= 500 {
			metrics.RecordError("http_5xx", path)
		}
	}
}
