package posts

import "Flock/internal/core/apperr"

var (
	// ErrPostNotFound is returned when a post is not found by id
	ErrPostNotFound = apperr.New(apperr.ErrNotFound, "post not found")

	// ErrNotAuthor is returned when someone other than the author deletes a post
	ErrNotAuthor = apperr.New(apperr.ErrForbidden, "only the author can delete a post")
)
