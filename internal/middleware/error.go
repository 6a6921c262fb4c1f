package middleware

import (
	"net/url"

	"saaskit/pkg/logger"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Parameters never written to logs
var sensitiveParams = map[string]bool{
	"password":              true,
	"password_confirmation": true,
	"client_secret":         true,
	"token":                 true,
	"code":                  true,
}

// ErrorHandler recovers panics, logs a sanitized view of the request
// and returns a generic server error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"query":  sanitizeQuery(c.Request.URL.Query()),
				}).Errorf("Panic recovered: %v", err)
				response.ServerError(c, "Something went wrong. Please try again.")
				c.Abort()
			}
		}()

		c.Next()
	}
}

func sanitizeQuery(values url.Values) string {
	filtered := url.Values{}
	for key, vals := range values {
		if sensitiveParams[key] {
			filtered.Set(key, "[FILTERED]")
			continue
		}
		filtered[key] = vals
	}
	return filtered.Encode()
}
