package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/metrics"
)

// PrometheusMiddleware records request counts and latencies per route.
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// FullPath keeps the route template (":id" instead of raw IDs)
		// so label cardinality stays bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, statusCode, serviceName).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path, serviceName).Observe(duration)
	}
}
