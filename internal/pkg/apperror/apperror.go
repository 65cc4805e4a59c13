package apperror

import (
	"errors"
	"net/http"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int      // HTTP Status Code (e.g., 400, 404)
	Message string   // User-facing error message
	Fields  []string // Offending request fields, for validation failures
	Err     error    // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation creates a 400 error naming the request fields that failed.
func Validation(message string, fields ...string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Fields:  fields,
	}
}

// Transient wraps a storage failure that is safe to retry with backoff.
// The cause is preserved so callers can still inspect it with errors.Is.
func Transient(err error) *AppError {
	return Wrap(err, http.StatusServiceUnavailable, "storage temporarily unavailable")
}

// CodeOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func CodeOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsTransient reports whether err should be retried by the caller.
func IsTransient(err error) bool {
	return CodeOf(err) == http.StatusServiceUnavailable
}
