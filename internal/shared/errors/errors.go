// Package errors provides application-level error types and utilities.
// Every failure crossing a catalog boundary is classified by kind so callers
// branch on the kind instead of on the transport error that produced it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation_error"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeNotDeclared      ErrorType = "not_declared"
	ErrorTypePolicyDisallowed ErrorType = "policy_disallowed"
	ErrorTypeDependencyCycle  ErrorType = "dependency_cycle"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeRemote           ErrorType = "remote_error"
	ErrorTypeInternal         ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the error this AppError was built from, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

func newAppError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewNotDeclaredError reports a file the target catalog cannot locate,
// i.e. one whose metadata has not been declared there yet.
func NewNotDeclaredError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotDeclared, http.StatusNotFound, message, details)
}

// NewPolicyError reports an entity that must never be migrated.
func NewPolicyError(message string, details ...string) *AppError {
	return newAppError(ErrorTypePolicyDisallowed, http.StatusUnprocessableEntity, message, details)
}

// NewCycleError reports an entity that depends on itself.
func NewCycleError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeDependencyCycle, http.StatusConflict, message, details)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewRemoteError creates an error for a failed catalog call (transport or server side).
func NewRemoteError(message string, cause error) *AppError {
	appErr := newAppError(ErrorTypeRemote, http.StatusBadGateway, message, nil)
	if cause != nil {
		appErr.Details = cause.Error()
		appErr.cause = cause
	}
	return appErr
}

// NewRemoteStatusError creates a remote error carrying the HTTP status the catalog answered with.
func NewRemoteStatusError(code int, message string, details ...string) *AppError {
	return newAppError(ErrorTypeRemote, code, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// TypeOf returns the kind of err, or ErrorTypeInternal for unclassified errors.
func TypeOf(err error) ErrorType {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsNotDeclaredError checks if the error is a not declared error
func IsNotDeclaredError(err error) bool {
	return isType(err, ErrorTypeNotDeclared)
}

// IsPolicyError checks if the error is a policy error
func IsPolicyError(err error) bool {
	return isType(err, ErrorTypePolicyDisallowed)
}

// IsCycleError checks if the error is a dependency cycle error
func IsCycleError(err error) bool {
	return isType(err, ErrorTypeDependencyCycle)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsRemoteError reports whether err is a transient catalog failure. Errors that
// carry no kind at all are treated as remote as well, since they can only come
// from a collaborator.
func IsRemoteError(err error) bool {
	if err == nil {
		return false
	}
	appErr := GetAppError(err)
	return appErr == nil || appErr.Type == ErrorTypeRemote
}

// IsUnmigratable reports whether err marks an entity that will not become
// migratable by retrying within the same run.
func IsUnmigratable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeNotFound, ErrorTypePolicyDisallowed, ErrorTypeDependencyCycle:
		return true
	}
	return false
}
