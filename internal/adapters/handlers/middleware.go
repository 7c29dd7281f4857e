package handlers

import (
	"net/http"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware пишет одну строку на запрос. Проверки /healthz идут в DEBUG.
func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Warn("Request failed", fields...)
		case c.Request.URL.Path == "/healthz":
			logger.Debug("Request completed", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}
