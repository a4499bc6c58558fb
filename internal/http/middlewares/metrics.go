package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/compound-engine/internal/metrics"
)

const slowRequest = 2 * time.Second

// MetricsMiddleware records request counts and latency by route. Scrapes and health checks are
// left out.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" || path == "/health" {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())

		if elapsed > slowRequest {
			log.Warn().Str("method", c.Request.Method).Str("path", path).Dur("took", elapsed).Msg("slow request")
		}
	}
}
