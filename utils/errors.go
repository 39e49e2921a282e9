package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared with the web and mobile clients.
const (
	CodeInvalidArgument    = "invalid-argument"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission-denied"
	CodeNotFound           = "not-found"
	CodeAlreadyExists      = "already-exists"
	CodeFailedPrecondition = "failed-precondition"
	CodeResourceExhausted  = "resource-exhausted"
	CodeInternal           = "internal"
	CodeUnavailable        = "unavailable"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) *AppError {
	return newAppError(CodeInvalidArgument, format, args...)
}

func Unauthenticated(format string, args ...any) *AppError {
	return newAppError(CodeUnauthenticated, format, args...)
}

func PermissionDenied(format string, args ...any) *AppError {
	return newAppError(CodePermissionDenied, format, args...)
}

func NotFound(format string, args ...any) *AppError {
	return newAppError(CodeNotFound, format, args...)
}

func AlreadyExists(format string, args ...any) *AppError {
	return newAppError(CodeAlreadyExists, format, args...)
}

func FailedPrecondition(format string, args ...any) *AppError {
	return newAppError(CodeFailedPrecondition, format, args...)
}

func ResourceExhausted(format string, args ...any) *AppError {
	return newAppError(CodeResourceExhausted, format, args...)
}

// Internal wraps an unexpected error. The message is safe to show to clients.
func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Err: err}
}

// AsAppError converts any error into an *AppError, treating unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
