package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the error type returned by services and rendered by handlers.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`

	cause error
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the store error an INTERNAL_ERROR was built from.
func (e *APIError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized creates an UNAUTHORIZED error (missing or invalid credentials)
func Unauthorized(message string) *APIError {
	return newError(ErrUnauthorized, message)
}

// Forbidden creates a FORBIDDEN error. This is the "not authorized" case:
// the caller is known but may not act on the resource.
func Forbidden(message string) *APIError {
	return newError(ErrForbidden, message)
}

// Conflict creates a CONFLICT error
func Conflict(resource string) *APIError {
	return newError(ErrConflict, fmt.Sprintf("%s already exists or is in an invalid state", resource))
}

// ValidationError creates a VALIDATION_ERROR for a single field
func ValidationError(field, message string) *APIError {
	e := newError(ErrValidation, message)
	e.Field = field
	return e
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return newError(ErrBadRequest, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newError(ErrInternalError, message)
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newError(ErrRateLimited, message)
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return newError(ErrServiceUnavail, fmt.Sprintf("%s is temporarily unavailable", service))
}

// Wrap turns an unexpected store/transport error into an INTERNAL_ERROR that
// keeps the original error reachable through errors.Is/As. APIErrors pass
// through unchanged.
func Wrap(err error, message string) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := As(err); ok {
		return apiErr
	}
	e := InternalError(message)
	e.cause = err
	return e
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// As reports whether err is (or wraps) an APIError.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code ErrorCode) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == code
}
