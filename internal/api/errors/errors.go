// Package errors defines the selector engine's structured API error
// envelope, adapted from the teacher's internal/api/errors package onto the
// selector language's own error taxonomy (internal/selector.Err*) instead of
// the teacher's alerting/publishing error codes.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// ErrorCode represents a stable, machine-readable API error code.
type ErrorCode string

const (
	CodeSyntaxError        ErrorCode = "SYNTAX_ERROR"
	CodeMalformedExpression ErrorCode = "MALFORMED_EXPRESSION"
	CodeUnknownMacro        ErrorCode = "UNKNOWN_MACRO"
	CodeUsageError          ErrorCode = "USAGE_ERROR"
	CodeExternalProvider    ErrorCode = "EXTERNAL_PROVIDER_ERROR"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// APIError is the structured error envelope every handler returns on
// failure.
type APIError struct {
	Code      ErrorCode   `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse wraps APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError builds an APIError stamped with the current time.
func NewAPIError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithDetails attaches arbitrary structured detail (e.g. the offending
// token) to the error.
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

// WithRequestID stamps the error with the request's correlation ID.
func (e *APIError) WithRequestID(requestID string) *APIError {
	e.RequestID = requestID
	return e
}

// StatusCode maps the error code to its HTTP status.
func (e *APIError) StatusCode() int {
	switch e.Code {
	case CodeSyntaxError, CodeMalformedExpression, CodeUnknownMacro, CodeValidationError:
		return http.StatusBadRequest
	case CodeUsageError:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeExternalProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WriteError writes err as a JSON error response with the matching status
// code.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: *err})
}

// FromSelectorError classifies an error returned by internal/selector into
// the matching APIError, falling back to an internal error for anything
// that doesn't match the selector package's sentinel taxonomy.
func FromSelectorError(err error) *APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, selector.ErrSyntax):
		return NewAPIError(CodeSyntaxError, err.Error())
	case errors.Is(err, selector.ErrMalformedExpression):
		return NewAPIError(CodeMalformedExpression, err.Error())
	case errors.Is(err, selector.ErrUnknownMacro):
		return NewAPIError(CodeUnknownMacro, err.Error())
	case errors.Is(err, selector.ErrUsage):
		return NewAPIError(CodeUsageError, err.Error())
	case errors.Is(err, selector.ErrExternal):
		return NewAPIError(CodeExternalProvider, err.Error())
	default:
		return NewAPIError(CodeInternalError, err.Error())
	}
}

// ValidationError creates a validation error.
func ValidationError(message string) *APIError {
	return NewAPIError(CodeValidationError, message)
}

// NotFoundError creates a not-found error for the named resource.
func NotFoundError(resource string) *APIError {
	return NewAPIError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// RateLimitError creates a standard rate-limit-exceeded error.
func RateLimitError() *APIError {
	return NewAPIError(CodeRateLimitExceeded, "rate limit exceeded, retry later")
}

// InternalError creates an internal server error.
func InternalError(message string) *APIError {
	return NewAPIError(CodeInternalError, message)
}
