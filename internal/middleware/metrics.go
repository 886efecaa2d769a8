package middleware

import (
	"strconv"
	"time"

	"github.com/haierkeys/fast-note-service/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics counts requests per route template, so /api/notes/:id is one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, status).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
