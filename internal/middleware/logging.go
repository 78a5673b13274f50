package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const redacted = "REDACTED"

// AccessLogger is gin's request logger with session tokens removed from
// the logged query string.
func AccessLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(p gin.LogFormatterParams) string {
			return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
				p.TimeStamp.Format("2006/01/02 - 15:04:05"),
				p.StatusCode,
				p.Latency.Truncate(time.Microsecond),
				p.ClientIP,
				p.Method,
				RedactPath(p.Path),
				p.ErrorMessage,
			)
		},
	})
}

// RedactPath masks the access_token query parameter in a request path.
func RedactPath(path string) string {
	base, rawQuery, ok := strings.Cut(path, "?")
	if !ok || !strings.Contains(rawQuery, accessTokenParam) {
		return path
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return base
	}
	if _, found := query[accessTokenParam]; !found {
		return path
	}
	query.Set(accessTokenParam, redacted)
	return base + "?" + query.Encode()
}
