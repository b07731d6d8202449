package handler

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// secretParams are query parameters that never reach the logs.
var secretParams = []string{"token"}

// RequestLog emits one structured log line per request. Session tokens passed
// in the query string are replaced before logging.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info(
			"http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", redactQuery(c.Request.URL.RawQuery),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	for _, key := range secretParams {
		if values.Has(key) {
			values.Set(key, "REDACTED")
		}
	}
	return values.Encode()
}
