package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError renders apiErr and counts it by code. 5xx responses are
// logged as errors, everything else at warn.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("path", c.FullPath()),
		logger.WithStatus(apiErr.Status),
		logger.WithRequestID(c.GetString(ContextKeyRequestID)),
	}
	if userID := c.GetString(ContextKeyUserID); userID != "" {
		fields = append(fields, logger.WithUserID(userID))
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error(apiErr.Message, fields...)
	} else {
		logger.Warn(apiErr.Message, fields...)
	}
	metrics.RecordError(string(apiErr.Code), c.FullPath())

	c.JSON(apiErr.Status, ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondWithError renders err. APIErrors keep their code and status;
// anything else is logged and reported as an internal error.
func RespondWithError(c *gin.Context, err error) {
	if apiErr, ok := errors.As(err); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	logger.ErrorWithFields("Unhandled error", err, zap.String("path", c.FullPath()))
	RespondWithAPIError(c, errors.InternalError("internal server error"))
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "bad request"
	}
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondValidationError sends a 422 Unprocessable Entity response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
