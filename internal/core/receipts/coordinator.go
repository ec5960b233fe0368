package receipts

import (
	"context"
	"fmt"
	"log/slog"

	"Flock/internal/core/dialogs"
)

type coordinator struct {
	repo     Repository
	dialogs  DialogGuard
	notifier Notifier
	logger   *slog.Logger
}

// NewCoordinator creates a read receipt coordinator
func NewCoordinator(repo Repository, dialogGuard DialogGuard, notifier Notifier, logger *slog.Logger) Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &coordinator{
		repo:     repo,
		dialogs:  dialogGuard,
		notifier: notifier,
		logger:   logger,
	}
}

func (c *coordinator) MarkRead(ctx context.Context, dialogID, readerID string) (int64, error) {
	dialog, err := c.dialogs.RequireParticipant(ctx, dialogID, readerID)
	if err != nil {
		return 0, err
	}
	return c.MarkDialogRead(ctx, dialog, readerID)
}

// MarkDialogRead emits exactly one messages-read event per successful call,
// even when nothing flipped. Clients treat it as a cue to refresh counts.
func (c *coordinator) MarkDialogRead(ctx context.Context, dialog *dialogs.Dialog, readerID string) (int64, error) {
	flipped, err := c.repo.MarkRead(context.WithoutCancel(ctx), dialog.ID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	if flipped > 0 {
		c.logger.Debug("messages marked read",
			"dialog", dialog.ID,
			"reader", readerID,
			"count", flipped)
	}

	if ctx.Err() == nil {
		c.notifier.MessagesRead(dialog, readerID)
	}
	return flipped, nil
}

func (c *coordinator) UnreadDialogCount(ctx context.Context, userID string) (int, error) {
	n, err := c.repo.UnreadDialogCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread dialogs: %w", err)
	}
	return n, nil
}
