package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"Flock/internal/core/apperr"
	"Flock/internal/core/dialogs"

	"github.com/google/uuid"
)

type messageService struct {
	repo     Repository
	dialogs  DialogGuard
	users    UserLookup
	reads    ReadMarker
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new message service
func NewService(repo Repository, dialogGuard DialogGuard, users UserLookup, reads ReadMarker, notifier Notifier, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &messageService{
		repo:     repo,
		dialogs:  dialogGuard,
		users:    users,
		reads:    reads,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SendMessage persists the message, moves the dialog's last-message pointer
// and only then publishes message-created.
func (s *messageService) SendMessage(ctx context.Context, senderID string, req SendMessageRequest) (*MessageView, error) {
	if err := validateSendRequest(&req); err != nil {
		return nil, err
	}

	dialog, err := s.dialogs.RequireParticipant(ctx, req.DialogID, senderID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}

	msg := &Message{
		ID:          uuid.NewString(),
		DialogID:    dialog.ID,
		UserID:      senderID,
		Text:        req.Text,
		Attachments: req.Attachments,
		CreatedAt:   s.now().UTC(),
	}

	durable := context.WithoutCancel(ctx)
	if err := s.repo.Create(durable, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	moved, err := s.repo.AdvanceDialogLastMessage(durable, dialog.ID, msg.ID, msg.CreatedAt)
	if err != nil {
		s.logger.Error("failed to advance dialog last message",
			"error", err,
			"dialog", dialog.ID,
			"message", msg.ID)
		return nil, fmt.Errorf("failed to update dialog last message: %w", err)
	}
	if !moved {
		s.logger.Debug("dialog already points at a newer message",
			"dialog", dialog.ID,
			"message", msg.ID)
	}

	view := &MessageView{Message: msg, User: sender.View()}

	if ctx.Err() == nil {
		s.notifier.MessageCreated(dialog, view)
	}

	return view, nil
}

// DeleteMessage removes the requester's own message and synchronously repairs
// the dialog's last-message pointer before any event goes out.
func (s *messageService) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return apperr.NewValidationError("id", "message id is required")
	}

	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != requesterID {
		return ErrNotAuthor
	}

	dialog, err := s.dialogs.GetDialog(ctx, msg.DialogID)
	if err != nil && !errors.Is(err, dialogs.ErrDialogNotFound) {
		return fmt.Errorf("failed to load dialog: %w", err)
	}

	durable := context.WithoutCancel(ctx)
	if err := s.repo.Delete(durable, msg.ID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	last, err := s.repo.RepairDialogLastMessage(durable, msg.DialogID)
	if err != nil {
		s.logger.Error("failed to repair dialog last message",
			"error", err,
			"dialog", msg.DialogID,
			"deleted_message", msg.ID)
		return fmt.Errorf("failed to repair dialog last message: %w", err)
	}

	s.logger.Info("message deleted",
		"message", msg.ID,
		"dialog", msg.DialogID,
		"has_last_message", last != nil)

	// Orphaned messages of a deleted dialog have nobody to notify
	if dialog == nil || ctx.Err() != nil {
		return nil
	}

	s.notifier.MessageDeleted(dialog, msg.ID)
	s.notifier.LastMessageChanged(dialog, last)
	return nil
}

func (s *messageService) ListMessages(ctx context.Context, dialogID, requesterID string) ([]*MessageView, error) {
	dialog, err := s.dialogs.RequireParticipant(ctx, dialogID, requesterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.reads.MarkDialogRead(ctx, dialog, requesterID); err != nil {
		return nil, fmt.Errorf("failed to mark dialog read: %w", err)
	}

	msgs, err := s.repo.ListByDialog(ctx, dialog.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func validateSendRequest(req *SendMessageRequest) error {
	req.DialogID = strings.TrimSpace(req.DialogID)
	if req.DialogID == "" {
		return apperr.NewValidationError("dialogId", "dialogId is required")
	}

	req.Text = strings.TrimSpace(req.Text)
	if err := ValidateContent(req.Text, req.Attachments); err != nil {
		return err
	}
	if req.Attachments == nil {
		req.Attachments = []string{}
	}

	return nil
}

// ValidateContent checks a message body without touching any store, so
// callers can reject it before creating the dialog it would go to
func ValidateContent(text string, attachments []string) error {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return apperr.NewValidationError("text", "text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return apperr.NewValidationError("text", fmt.Sprintf("text must not exceed %d characters", MaxTextLength))
	}

	if len(attachments) > MaxAttachments {
		return apperr.NewValidationError("attachments", fmt.Sprintf("at most %d attachments are allowed", MaxAttachments))
	}
	for _, a := range attachments {
		if strings.TrimSpace(a) == "" {
			return apperr.NewValidationError("attachments", "attachments must not be empty")
		}
	}
	return nil
}
