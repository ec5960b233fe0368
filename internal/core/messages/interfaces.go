package messages

import (
	"context"
	"time"

	"Flock/internal/core/dialogs"
	"Flock/internal/core/users"
)

// Repository defines the data access interface for messages and the
// dialog last-message pointer derived from them
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)

	// ListByDialog returns every message of the dialog with sender profiles, oldest first
	ListByDialog(ctx context.Context, dialogID string) ([]*MessageView, error)
	Delete(ctx context.Context, id string) error

	// AdvanceDialogLastMessage points the dialog at messageID unless the dialog already
	// points at a message created after at. Reports whether the pointer moved.
	AdvanceDialogLastMessage(ctx context.Context, dialogID, messageID string, at time.Time) (bool, error)

	// RepairDialogLastMessage re-derives the dialog pointer from the newest remaining
	// message and writes it back (NULL when none remain). Returns that message or nil.
	RepairDialogLastMessage(ctx context.Context, dialogID string) (*MessageView, error)
}

// DialogGuard resolves dialogs and enforces participation
type DialogGuard interface {
	GetDialog(ctx context.Context, dialogID string) (*dialogs.Dialog, error)
	RequireParticipant(ctx context.Context, dialogID, userID string) (*dialogs.Dialog, error)
}

// UserLookup resolves sender profiles
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// ReadMarker flips read status for messages the reader did not send
type ReadMarker interface {
	MarkDialogRead(ctx context.Context, dialog *dialogs.Dialog, readerID string) (int64, error)
}

// Notifier receives message events after they are committed
type Notifier interface {
	MessageCreated(dialog *dialogs.Dialog, message *MessageView)
	MessageDeleted(dialog *dialogs.Dialog, messageID string)
	LastMessageChanged(dialog *dialogs.Dialog, last *MessageView)
}

// Service defines message operations
type Service interface {
	SendMessage(ctx context.Context, senderID string, req SendMessageRequest) (*MessageView, error)
	DeleteMessage(ctx context.Context, requesterID, messageID string) error

	// ListMessages returns the dialog's messages oldest first and marks
	// everything the requester did not send as read.
	ListMessages(ctx context.Context, dialogID, requesterID string) ([]*MessageView, error)
}
