package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/cache"
	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/util"
	"go.uber.org/zap"
)

const rateLimitTimeout = 2 * time.Second

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc identifies the caller; defaults to user ID, then client IP
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  120,
		Window: time.Minute,
	}
}

// RateLimitMiddleware counts mutating requests per caller in a window that
// starts with the caller's first request, on a shared store, so the limit holds across server instances. Reads are
// not limited. A store failure rejects the request rather than letting it
// through unmetered.
func RateLimitMiddleware(store cache.Store, config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = callerKey
	}
	if config.Window < time.Second {
		config.Window = time.Second
	}

	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
		defer cancel()

		key := "rate_limit:" + config.KeyFunc(c)

		count, err := store.IncrBy(ctx, key, 1)
		if err != nil {
			logger.ErrorWithFields("Rate limit check failed", err, logger.WithIP(c.ClientIP()))
			util.RespondWithAPIError(c, apperrors.ServiceUnavailable("rate limiter"))
			c.Abort()
			return
		}
		if count == 1 {
			if err := store.Expire(ctx, key, config.Window); err != nil {
				logger.Warn("Failed to set rate limit expiration", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := config.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(config.Limit) {
			metrics.RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
			c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			util.RespondWithAPIError(c, apperrors.RateLimited(""))
			c.Abort()
			return
		}

		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if userID := c.GetString(util.ContextKeyUserID); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
