package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusched/alloc-api/internal/service"
)

// routeLabel prefers the route template over the raw URL so per-entity paths
// like /teachers/:id do not explode the label cardinality.
func routeLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

// Metrics records method, route, status and latency for every request.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}
