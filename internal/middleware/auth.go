package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/auth"
	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/util"
)

// AuthMiddleware verifies the bearer token (or ?token= for websocket
// upgrades) and stores the caller's user ID in the context.
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(auth.TokenFromRequest(c.Request))
		if err != nil {
			message := "invalid or expired token"
			if errors.Is(err, auth.ErrMissingToken) {
				message = "authorization required"
			}
			util.RespondWithAPIError(c, apperrors.Unauthorized(message))
			c.Abort()
			return
		}

		c.Set(util.ContextKeyUserID, claims.UserID)
		c.Next()
	}
}
