// Package errors defines the structured error taxonomy shared by the API
// client, the autoposter, and the webhook daemon.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType classifies an error.
type ErrorType string

const (
	// ErrTypeNetwork represents connection-level failures before any HTTP
	// response was received.
	ErrTypeNetwork ErrorType = "network"
	// ErrTypeTimeout represents requests that exceeded their deadline.
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeUnauthorized represents rejected credentials (HTTP 401).
	ErrTypeUnauthorized ErrorType = "unauthorized"
	// ErrTypeNotFound represents missing resources (HTTP 404).
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeRateLimited represents server-side rate limiting (HTTP 429).
	ErrTypeRateLimited ErrorType = "rate_limited"
	// ErrTypeServer represents 5xx responses.
	ErrTypeServer ErrorType = "server_error"
	// ErrTypeUnexpectedStatus represents any other non-2xx response.
	ErrTypeUnexpectedStatus ErrorType = "unexpected_status"
	// ErrTypeDeserialization represents a 2xx response whose body did not
	// match the expected shape.
	ErrTypeDeserialization ErrorType = "deserialization"
	// ErrTypeConfig represents invalid configuration at construction time.
	ErrTypeConfig ErrorType = "config"
	// ErrTypeBadRequest represents an authenticated webhook request whose
	// body could not be parsed.
	ErrTypeBadRequest ErrorType = "bad_request"
)

// AppError is a structured application error. Status carries the HTTP status
// for server/unexpected-status errors; RetryAfter carries the server's
// rate-limit hint for rate-limited errors.
type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Status     int
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.RetryAfter != 0 {
		parts = append(parts, fmt.Sprintf("retry_after=%s", e.RetryAfter))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NetworkError creates a connection-level error.
func NetworkError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeNetwork, Message: msg, Cause: cause}
}

// TimeoutError creates a timeout error for the named operation.
func TimeoutError(operation string, cause error) *AppError {
	return &AppError{Type: ErrTypeTimeout, Message: fmt.Sprintf("timeout during %s", operation), Cause: cause}
}

// UnauthorizedError creates an error for rejected credentials.
func UnauthorizedError(msg string) *AppError {
	return &AppError{Type: ErrTypeUnauthorized, Message: msg}
}

// NotFoundError creates a resource-not-found error.
func NotFoundError(resource string) *AppError {
	return &AppError{Type: ErrTypeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// RateLimitedError creates a rate-limit error carrying the server's
// retry-after hint.
func RateLimitedError(retryAfter time.Duration) *AppError {
	return &AppError{
		Type:       ErrTypeRateLimited,
		Message:    "rate limited",
		RetryAfter: retryAfter,
	}
}

// ServerError creates an error for a 5xx response.
func ServerError(status int) *AppError {
	return &AppError{Type: ErrTypeServer, Message: "server error", Status: status}
}

// UnexpectedStatusError creates an error for an unclassified non-2xx
// response.
func UnexpectedStatusError(status int) *AppError {
	return &AppError{Type: ErrTypeUnexpectedStatus, Message: "unexpected status", Status: status}
}

// DeserializationError creates an error for a malformed response body.
func DeserializationError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeDeserialization, Message: msg, Cause: cause}
}

// ConfigError creates a configuration error.
func ConfigError(msg string) *AppError {
	return &AppError{Type: ErrTypeConfig, Message: msg}
}

// BadRequestError creates an error for an unparseable webhook body.
func BadRequestError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeBadRequest, Message: msg, Cause: cause}
}

// IsType checks whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// RetryAfter extracts the retry-after hint from a rate-limited error,
// returning zero for anything else.
func RetryAfter(err error) time.Duration {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Type != ErrTypeRateLimited {
		return 0
	}
	return appErr.RetryAfter
}
