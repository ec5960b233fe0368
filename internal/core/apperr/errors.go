// Package apperr holds the error taxonomy shared by every core service.
// Domain packages declare their own sentinels on top of these kinds so the
// API layer can map any failure to a status code with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound indicates a missing dialog, message, post or user
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the actor lacks permission for the operation
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a toggle could not reach a consistent state within its retry budget
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates a missing or malformed input field
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamUnavailable indicates the persistent store or the bus could not be reached
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error is a domain error classified under one of the taxonomy kinds
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates a domain error of the given kind
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Unavailable wraps a store or transport failure as ErrUpstreamUnavailable
// while keeping the cause in the chain for logging.
func Unavailable(cause error) error {
	if cause == nil {
		return nil
	}
	return &unavailableError{cause: cause}
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return "upstream unavailable: " + e.cause.Error()
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.cause}
}
