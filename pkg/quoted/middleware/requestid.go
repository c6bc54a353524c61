// Package middleware provides HTTP middleware components for the gin server.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the context key for storing the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID returns middleware that takes the request ID from the
// X-Request-ID header or generates a new UUID, stores it in the gin
// context, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID extracts the request ID from the gin context.
// Returns empty string if not set.
func GetRequestID(c *gin.Context) string {
	id, exists := c.Get(ContextKeyRequestID)
	if !exists {
		return ""
	}
	return id.(string)
}
