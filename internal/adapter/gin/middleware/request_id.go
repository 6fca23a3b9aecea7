package middleware

import (
	"github.com/gin-gonic/gin"

	"user-rest-service/pkg/logger"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
// The id is echoed in the response and stored in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" {
			id = logger.NewRequestID()
		}

		c.Header(logger.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
