package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

const (
	// HeaderRequestID is echoed back on every response
	HeaderRequestID = "X-Request-ID"

	ContextKeyRequestID = util.ContextKeyRequestID
)

// RequestIDMiddleware tags each request with the caller's X-Request-ID, or a
// fresh UUID when none was sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}
