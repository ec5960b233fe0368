package dialogs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Flock/internal/core/apperr"

	"github.com/google/uuid"
)

type dialogService struct {
	repo     Repository
	users    UserLookup
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a new dialog service
func NewService(repo Repository, users UserLookup, notifier Notifier, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &dialogService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *dialogService) FindOrCreateDialog(ctx context.Context, actorID, partnerID string) (*Dialog, bool, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, false, apperr.NewValidationError("partner", "partner is required")
	}
	if actorID == partnerID {
		return nil, false, ErrSelfDialog
	}

	if _, err := s.users.GetByID(ctx, partnerID); err != nil {
		return nil, false, err
	}

	candidate := &Dialog{
		ID:        uuid.NewString(),
		AuthorID:  actorID,
		PartnerID: partnerID,
		CreatedAt: time.Now().UTC(),
	}

	dialog, created, err := s.repo.GetOrCreate(context.WithoutCancel(ctx), candidate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find or create dialog: %w", err)
	}

	if created {
		s.logger.Info("dialog created",
			"dialog", dialog.ID,
			"author", dialog.AuthorID,
			"partner", dialog.PartnerID)
		if ctx.Err() == nil {
			s.notifier.DialogCreated(dialog)
		}
	}

	return dialog, created, nil
}

func (s *dialogService) ListDialogs(ctx context.Context, userID string) ([]*DialogView, error) {
	views, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}
	return views, nil
}

func (s *dialogService) DeleteDialog(ctx context.Context, requesterID, dialogID string) error {
	if _, err := s.RequireParticipant(ctx, dialogID, requesterID); err != nil {
		return err
	}

	if err := s.repo.Delete(context.WithoutCancel(ctx), dialogID); err != nil {
		return fmt.Errorf("failed to delete dialog: %w", err)
	}

	s.logger.Info("dialog deleted", "dialog", dialogID, "by", requesterID)
	return nil
}

func (s *dialogService) GetDialog(ctx context.Context, dialogID string) (*Dialog, error) {
	if strings.TrimSpace(dialogID) == "" {
		return nil, apperr.NewValidationError("dialog", "dialog id is required")
	}
	return s.repo.GetByID(ctx, dialogID)
}

func (s *dialogService) RequireParticipant(ctx context.Context, dialogID, userID string) (*Dialog, error) {
	dialog, err := s.GetDialog(ctx, dialogID)
	if err != nil {
		return nil, err
	}
	if !dialog.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return dialog, nil
}
