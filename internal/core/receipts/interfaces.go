package receipts

import (
	"context"

	"Flock/internal/core/dialogs"
)

// Repository holds the read-status queries over messages and dialogs
type Repository interface {
	// MarkRead sets read=true on every unread message in the dialog not sent by readerID
	// in a single statement and returns how many rows flipped.
	MarkRead(ctx context.Context, dialogID, readerID string) (int64, error)

	// UnreadDialogCount counts dialogs of userID whose last message exists,
	// is unread, and was sent by somebody else.
	UnreadDialogCount(ctx context.Context, userID string) (int, error)
}

// DialogGuard enforces participation before a dialog is marked read
type DialogGuard interface {
	RequireParticipant(ctx context.Context, dialogID, userID string) (*dialogs.Dialog, error)
}

// Notifier receives read events
type Notifier interface {
	MessagesRead(dialog *dialogs.Dialog, readerID string)
}

// Coordinator flips read status in bulk and announces it
type Coordinator interface {
	MarkRead(ctx context.Context, dialogID, readerID string) (int64, error)

	// MarkDialogRead is MarkRead for a dialog the caller has already authorized
	MarkDialogRead(ctx context.Context, dialog *dialogs.Dialog, readerID string) (int64, error)
	UnreadDialogCount(ctx context.Context, userID string) (int, error)
}
