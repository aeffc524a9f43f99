package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/chai-cli/internal/logger"
)

// LoggerMiddleware logs one line per request through the application logger.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			log.Warn("request failed", kv...)
			return
		}
		log.Debug("request", kv...)
	}
}

// RecoveryMiddleware recovers from panics and answers 500.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
