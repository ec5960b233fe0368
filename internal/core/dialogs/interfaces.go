package dialogs

import (
	"context"

	"Flock/internal/core/users"
)

// Repository defines the data access interface for dialogs
type Repository interface {
	// GetOrCreate inserts the dialog unless one already exists for the unordered
	// participant pair, in which case the existing dialog is returned with created=false.
	GetOrCreate(ctx context.Context, dialog *Dialog) (*Dialog, bool, error)
	GetByID(ctx context.Context, id string) (*Dialog, error)

	// ListForUser returns every dialog userID participates in, newest last message first,
	// dialogs without messages last.
	ListForUser(ctx context.Context, userID string) ([]*DialogView, error)

	// Delete hard-deletes the dialog row. Messages are left in place.
	Delete(ctx context.Context, id string) error
}

// UserLookup resolves participants
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Notifier receives dialog lifecycle events after they are committed
type Notifier interface {
	DialogCreated(dialog *Dialog)
}

// Service defines dialog lifecycle operations
type Service interface {
	// FindOrCreateDialog returns the dialog between actor and partner, creating it on first contact.
	// created is true only for the call that inserted it.
	FindOrCreateDialog(ctx context.Context, actorID, partnerID string) (*Dialog, bool, error)
	ListDialogs(ctx context.Context, userID string) ([]*DialogView, error)
	DeleteDialog(ctx context.Context, requesterID, dialogID string) error
	GetDialog(ctx context.Context, dialogID string) (*Dialog, error)

	// RequireParticipant loads the dialog and fails with ErrNotParticipant unless userID is in it
	RequireParticipant(ctx context.Context, dialogID, userID string) (*Dialog, error)
}
