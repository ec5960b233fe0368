package graph

import (
	"errors"

	"Flock/internal/core/apperr"
)

var (
	// ErrSelfFollow indicates an attempt to follow oneself
	ErrSelfFollow = apperr.NewValidationError("target", "cannot follow yourself")

	// ErrLikeSetNotFound indicates the post has no like set, i.e. the post doesn't exist
	ErrLikeSetNotFound = apperr.New(apperr.ErrNotFound, "post not found")

	// ErrToggleConflict indicates concurrent toggles kept racing this one past its retry
	ErrToggleConflict = apperr.New(apperr.ErrConflict, "edge changed concurrently, retry the request")
)

// errToggleRaced marks a removal that matched nothing because a concurrent
// toggle removed the edge first
var errToggleRaced = errors.New("toggle raced")

// errMirrorUnsettled marks a followers sync that kept chasing concurrent
// changes to the following row
var errMirrorUnsettled = errors.New("followers mirror did not settle")
