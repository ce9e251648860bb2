package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"go.uber.org/zap"
)

// Logger writes one access log line per request. 5xx log at error, 4xx at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if uid, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.ErrorContext(c.Request.Context(), "Server error", fields...)
		case status >= 400:
			log.WarnContext(c.Request.Context(), "Client error", fields...)
		default:
			log.InfoContext(c.Request.Context(), "Request completed", fields...)
		}
	}
}
