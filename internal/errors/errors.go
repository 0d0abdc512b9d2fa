// Package errors provides the Meridian error taxonomy.
//
// ValidationError and NotFoundError are ordinary results surfaced to the
// caller; AuthorizationError rejects an operation before any mutation;
// StructuralError marks a data-integrity or programming bug and is meant
// to fail loudly at the top of the call stack.
package errors

import (
	"fmt"
	"net/http"
)

// APIError is the base interface for all Meridian errors
type APIError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of APIError
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid user input as a structured field/message
// collection so forms can render inline errors. It is returned, never
// panicked.
type ValidationError struct {
	BaseError
	Fields []FieldError `json:"fields,omitempty"`
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Fields: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a validation error from a field collection
func NewValidationErrors(fields []FieldError) *ValidationError {
	message := "validation failed"
	if len(fields) > 0 {
		message = fields[0].Message
	}
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Fields: fields,
	}
}

// NotFoundError reports a missing template/role/client/user id. A missing
// template reference on a client is a recoverable, display-degraded state
// for callers, not a fatal condition.
type NotFoundError struct {
	BaseError
	Resource string
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// AuthorizationError rejects an operation the actor may not perform. It is
// checked before any mutation, so a rejected operation never partially
// applies.
type AuthorizationError struct {
	BaseError
}

// NewAuthorizationError creates an authorization error with a
// human-readable reason
func NewAuthorizationError(reason string) *AuthorizationError {
	if reason == "" {
		reason = "permission denied"
	}
	return &AuthorizationError{
		BaseError: BaseError{
			Message:    reason,
			StatusCode: http.StatusForbidden,
			ErrorCode:  "AUTHORIZATION_ERROR",
		},
	}
}

// UnauthorizedError represents a missing or invalid authentication
type UnauthorizedError struct {
	BaseError
}

// NewUnauthorizedError creates an authentication error
func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// ConflictError represents a duplicate-resource conflict
type ConflictError struct {
	BaseError
	Resource string
}

// NewConflictError creates a conflict error for the named resource
func NewConflictError(resource string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s already exists", resource),
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// StructuralError marks a malformed template or role collection: a cyclic
// state that should have been impossible, a payload of the wrong shape, or
// a similar integrity bug upstream. No user-facing recovery exists.
type StructuralError struct {
	BaseError
}

// NewStructuralError creates a structural error
func NewStructuralError(message string) *StructuralError {
	return &StructuralError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "STRUCTURAL_ERROR",
		},
	}
}

// InternalError wraps an unexpected failure
type InternalError struct {
	BaseError
	OriginalError error
}

// NewInternalError creates an internal error wrapping the original failure
func NewInternalError(original error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
		},
		OriginalError: original,
	}
}

func (e *InternalError) Unwrap() error {
	return e.OriginalError
}

// ToHTTPError converts any error to an HTTP status and response body
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	if ve, ok := err.(*ValidationError); ok {
		return ve.HTTPStatus(), map[string]interface{}{
			"error":   ve.Code(),
			"message": ve.Error(),
			"fields":  ve.Fields,
		}
	}

	if ae, ok := err.(APIError); ok {
		return ae.HTTPStatus(), map[string]interface{}{
			"error":   ae.Code(),
			"message": ae.Error(),
		}
	}

	return http.StatusInternalServerError, map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}
