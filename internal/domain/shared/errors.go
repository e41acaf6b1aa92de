// Package shared contains the identity, error and event types that every
// aggregate package builds on.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Match them with errors.Is().
var (
	// A value supplied by the caller violates a constraint.
	ErrInvalidArgument = errors.New("invalid argument")

	// The request is well formed but the current state forbids it.
	ErrInvalidOperation = errors.New("invalid operation")

	// A referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// The acting user does not own the target aggregate.
	ErrUnauthorized = errors.New("unauthorized")

	// Persistence detected a write that lost against a concurrent one.
	ErrConflict = errors.New("conflict")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "book", "activity", "player"
	Op      string // Operation that failed, e.g. "AddPagesRead"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// InvalidArgument is shorthand for a DomainError of kind ErrInvalidArgument.
func InvalidArgument(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// InvalidOperation is shorthand for a DomainError of kind ErrInvalidOperation.
func InvalidOperation(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// NotFound is shorthand for a DomainError of kind ErrNotFound.
func NotFound(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrNotFound, fmt.Sprintf(format, args...))
}

// Unauthorized is shorthand for a DomainError of kind ErrUnauthorized.
func Unauthorized(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrUnauthorized, fmt.Sprintf(format, args...))
}

// IsInvalidArgument checks if the error is an "invalid argument" error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidOperation checks if the error is an "invalid operation" error.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an "unauthorized" error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConflict checks if the error is a write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
