package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/service"
)

// unmatchedRoute labels requests no route handled, keeping probe and typo paths
// from creating one series each.
const unmatchedRoute = "unmatched"

// Metrics records method, route pattern, status and latency for every request.
// The /metrics scrape itself is not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
