package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/civicpulse/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// CustomLoggerMiddleware prints one plain-text line per request and records its latency.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		userID := c.GetString(ContextUserID)
		if userID == "" {
			userID = "anonymous"
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(latency.Seconds())

		fmt.Printf("[API] %s | %s | %d | %s | %s | User: %s\n",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			latency.String(),
			c.ClientIP(),
			userID,
		)
	}
}
