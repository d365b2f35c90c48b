package middleware

import (
	"time"

	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per registered route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
