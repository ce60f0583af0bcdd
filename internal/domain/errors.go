// Package domain defines the group-order types, store ports and error taxonomy.
package domain

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a referenced group order, order or user does not resolve.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates the principal lacks manager/member standing.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ConflictError indicates the target is in an incompatible lifecycle state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ValidationIssue is a single field-level problem.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError indicates malformed input.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records an issue and returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: msg})
	return e
}

// OrNil returns nil when no issues were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

func ErrNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func ErrAccessDenied(format string, args ...any) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

func ErrConflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func ErrValidation(field, format string, args ...any) *ValidationError {
	return (&ValidationError{}).Add(field, fmt.Sprintf(format, args...))
}
