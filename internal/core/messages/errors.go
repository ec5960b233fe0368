package messages

import "Flock/internal/core/apperr"

var (
	// ErrMessageNotFound indicates the requested message doesn't exist
	ErrMessageNotFound = apperr.New(apperr.ErrNotFound, "message not found")

	// ErrNotAuthor indicates someone other than the sender tried to delete a message
	ErrNotAuthor = apperr.New(apperr.ErrForbidden, "only the author can delete a message")
)
