// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hp82240-service/internal/utils"
)

// LoggingMiddleware logs every request with its request ID. Probe paths are
// logged only when debug logging is on.
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime)

		if isProbe(c.Request.URL.Path) && !logger.Core().Enabled(zap.DebugLevel) {
			return
		}

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.Writer.Status(),
			duration,
			zap.String("request_id", c.GetString(utils.RequestIDKey)),
			zap.Int("bytes", c.Writer.Size()),
		)
	}
}

func isProbe(path string) bool {
	return path == "/live" || path == "/ready"
}
