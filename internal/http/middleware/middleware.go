package middleware

import (
	"strconv"
	"time"

	"georesponse_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// RequestTimer records request count and latency per matched route.
// Unmatched requests are grouped under "unmatched" to bound label cardinality.
func RequestTimer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}
