package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type for API and pipeline operations.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested object does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStoreError indicates a persistence failure.
	ErrCodeStoreError ErrorCode = "STORE_ERROR"
	// ErrCodeLLMUnavailable indicates the language model is not reachable
	// or returned an unusable response.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeSessionBusy indicates a chat send is already in flight.
	ErrCodeSessionBusy ErrorCode = "SESSION_BUSY"
	// ErrCodeRateLimited indicates the per-user rate limit was exceeded.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// APIError represents a structured error with a stable code.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeSessionBusy:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeLLMUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: msg}
}

// StoreError wraps a persistence failure.
func StoreError(msg string, cause error) *APIError {
	return &APIError{Code: ErrCodeStoreError, Message: msg, Cause: cause}
}

// LLMUnavailable wraps a model failure.
func LLMUnavailable(msg string, cause error) *APIError {
	return &APIError{Code: ErrCodeLLMUnavailable, Message: msg, Cause: cause}
}

// SessionBusy creates a session busy error.
func SessionBusy() *APIError {
	return &APIError{Code: ErrCodeSessionBusy, Message: "a send is already in flight for this conversation"}
}

// RateLimited creates a rate limited error.
func RateLimited() *APIError {
	return &APIError{Code: ErrCodeRateLimited, Message: "too many requests, slow down"}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Code == code
	}
	return false
}
