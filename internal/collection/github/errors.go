package github

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy of API calls.
type ErrorCategory string

const (
	// ErrorNotFound indicates the resource does not exist (404)
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorConflict is returned for 409, which the API uses for empty repositories
	ErrorConflict ErrorCategory = "conflict"

	// ErrorForbidden indicates a 403 that is not caused by quota exhaustion
	ErrorForbidden ErrorCategory = "forbidden"

	// ErrorRateLimited indicates a 403 with the request quota exhausted
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorServer indicates a 5xx response
	ErrorServer ErrorCategory = "server_error"

	// ErrorHTTP covers every other non-success status
	ErrorHTTP ErrorCategory = "http_error"

	// ErrorNetwork indicates no response was received
	ErrorNetwork ErrorCategory = "network"

	// ErrorBadData indicates the response body could not be decoded
	ErrorBadData ErrorCategory = "bad_data"
)

// APIError wraps API failures with normalized categorization.
type APIError struct {
	Category   ErrorCategory
	Status     int
	Path       string
	Message    string
	Underlying error
	Retryable  bool // Whether the client retries this error
}

// Error implements the error interface
func (e *APIError) Error() string {
	status := ""
	if e.Status != 0 {
		status = fmt.Sprintf(" %d", e.Status)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("github%s [%s] %s: %s: %v", status, e.Category, e.Path, e.Message, e.Underlying)
	}
	return fmt.Sprintf("github%s [%s] %s: %s", status, e.Category, e.Path, e.Message)
}

// Unwrap supports error unwrapping
func (e *APIError) Unwrap() error {
	return e.Underlying
}

// NewAPIError creates a new normalized API error
func NewAPIError(category ErrorCategory, status int, path, message string, underlying error) *APIError {
	retryable := category == ErrorNetwork ||
		category == ErrorServer ||
		category == ErrorRateLimited

	return &APIError{
		Category:   category,
		Status:     status,
		Path:       path,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error. Errors that did not
// come from the client report an empty category.
func GetCategory(err error) ErrorCategory {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}

// IsNotFound reports a 404.
func IsNotFound(err error) bool {
	return GetCategory(err) == ErrorNotFound
}

// IsConflict reports a 409 (empty repository).
func IsConflict(err error) bool {
	return GetCategory(err) == ErrorConflict
}
