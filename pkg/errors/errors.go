// Package errors provides the typed error model shared by the workflow
// operations. Every failure surfaced to a caller is an AppError carrying a
// machine-readable code, an HTTP status, and a retryable hint so the client
// can distinguish "retry the same action" from "fix input and resubmit".
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Validation creates an AppError for malformed input. Validation failures are
// raised before any side effect.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeValidation, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// NotFound creates an AppError for an absent resource.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Duplicate creates an AppError for a unique-key collision on creation.
func Duplicate(resource, key string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateResource, Message: fmt.Sprintf("A %s with this %s already exists.", resource, key),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"resource": resource, "key": key},
	}
}

// Upstream creates an AppError for a failed external service call.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUpstream, Message: fmt.Sprintf("The %s service failed. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service},
		Cause:   cause,
	}
}

// Parse creates an AppError for a malformed stored payload.
func Parse(what string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeParse, Message: fmt.Sprintf("The stored %s could not be parsed.", what),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"payload": what},
		Cause:   cause,
	}
}

// Database creates an AppError for a failed storage operation.
func Database(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabase, Message: "A storage operation failed. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"operation": operation},
		Cause:   cause,
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(message string) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: message,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}
