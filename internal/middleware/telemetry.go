package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware wraps otelgin and tags the server span with the caller
// and the route's resource IDs.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if userID := c.GetString(util.ContextKeyUserID); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}
		if postID := c.Param("id"); postID != "" {
			span.SetAttributes(attribute.String("route.id", postID))
		}
		if requestID := c.GetString(ContextKeyRequestID); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		for _, ginErr := range c.Errors {
			if ginErr.Err != nil {
				span.RecordError(ginErr.Err)
				span.SetStatus(codes.Error, ginErr.Error())
			}
		}
	}
}
