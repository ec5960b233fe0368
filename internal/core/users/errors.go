package users

import (
	"Flock/internal/core/apperr"
)

// Sentinel errors for common user operations
var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = apperr.New(apperr.ErrNotFound, "user not found")

	// ErrUsernameTaken is returned when attempting to use a username that belongs to another user
	ErrUsernameTaken = apperr.New(apperr.ErrConflict, "username already taken")

	// ErrEmailTaken is returned when an email is already registered
	ErrEmailTaken = apperr.New(apperr.ErrConflict, "email already registered")
)
