package dialogs

import "Flock/internal/core/apperr"

var (
	// ErrDialogNotFound indicates the requested dialog doesn't exist
	ErrDialogNotFound = apperr.New(apperr.ErrNotFound, "dialog not found")

	// ErrNotParticipant indicates the actor is neither author nor partner of the dialog
	ErrNotParticipant = apperr.New(apperr.ErrForbidden, "not a participant of this dialog")

	// ErrSelfDialog indicates an attempt to open a dialog with oneself
	ErrSelfDialog = apperr.NewValidationError("partner", "cannot open a dialog with yourself")
)
