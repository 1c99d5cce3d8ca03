package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/errors"
)

const (
	// ContextKeyUserID is where the auth middleware stores the caller's user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID holds the request's correlation id.
	ContextKeyRequestID = "request_id"
)

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		RespondWithAPIError(c, errors.Unauthorized("user not authenticated"))
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondWithAPIError(c, errors.InternalError("invalid user ID in context"))
		return "", false
	}
	return userIDStr, true
}
