package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Flock/internal/core/messages"

	"github.com/lib/pq"
)

type postgresMessageRepo struct {
	store
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sql.DB, timeout time.Duration) messages.Repository {
	return &postgresMessageRepo{store: newStore(db, timeout)}
}

var messageViewSelect = `
	SELECT m.id, m.dialog_id, m.user_id, m.text, m.attachments, m.read, m.created_at,
		` + profileColumns("u") + `
	FROM messages m
	JOIN users u ON u.id = m.user_id`

func scanMessage(row interface{ Scan(...any) error }, m *messages.Message, extra ...any) error {
	dest := []any{&m.ID, &m.DialogID, &m.UserID, &m.Text, pq.Array(&m.Attachments), &m.Read, &m.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if m.Attachments == nil {
		m.Attachments = []string{}
	}
	return nil
}

func scanMessageView(row interface{ Scan(...any) error }) (*messages.MessageView, error) {
	m := &messages.Message{}
	var sender profile
	if err := scanMessage(row, m, sender.dest()...); err != nil {
		return nil, err
	}
	return &messages.MessageView{Message: m, User: sender.view()}, nil
}

func (r *postgresMessageRepo) Create(ctx context.Context, m *messages.Message) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO messages (id, dialog_id, user_id, text, attachments, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.DialogID, m.UserID, m.Text, pq.Array(m.Attachments), m.Read, m.CreatedAt)
	if err != nil {
		return classify(fmt.Errorf("failed to insert message: %w", err))
	}
	return nil
}

func (r *postgresMessageRepo) GetByID(ctx context.Context, id string) (*messages.Message, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `SELECT id, dialog_id, user_id, text, attachments, read, created_at FROM messages WHERE id = $1`

	m := &messages.Message{}
	err := scanMessage(r.db.QueryRowContext(ctx, query, id), m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, messages.ErrMessageNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get message: %w", err))
	}
	return m, nil
}

func (r *postgresMessageRepo) ListByDialog(ctx context.Context, dialogID string) ([]*messages.MessageView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, messageViewSelect+` WHERE m.dialog_id = $1 ORDER BY m.created_at ASC, m.id ASC`, dialogID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list messages: %w", err))
	}
	defer closeRows(rows)

	result := []*messages.MessageView{}
	for rows.Next() {
		view, err := scanMessageView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating message rows: %w", err))
	}
	return result, nil
}

func (r *postgresMessageRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete message: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return messages.ErrMessageNotFound
	}
	return nil
}

// AdvanceDialogLastMessage only moves the pointer forward in time, so two
// concurrent sends settle on the newer message whatever order they land in
func (r *postgresMessageRepo) AdvanceDialogLastMessage(ctx context.Context, dialogID, messageID string, at time.Time) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		UPDATE dialogs SET last_message_id = $2, last_message_at = $3
		WHERE id = $1 AND (last_message_at IS NULL OR last_message_at <= $3)`

	result, err := r.db.ExecContext(ctx, query, dialogID, messageID, at)
	if err != nil {
		return false, classify(fmt.Errorf("failed to advance last message: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// RepairDialogLastMessage locks the dialog row before re-reading the newest
// message. A concurrent advance blocks on the same row and applies after us.
func (r *postgresMessageRepo) RepairDialogLastMessage(ctx context.Context, dialogID string) (*messages.MessageView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM dialogs WHERE id = $1 FOR UPDATE`, dialogID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		// dialog already deleted, nothing to point at
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to lock dialog: %w", err))
	}

	last, err := scanMessageView(tx.QueryRowContext(ctx,
		messageViewSelect+` WHERE m.dialog_id = $1 ORDER BY m.created_at DESC, m.id DESC LIMIT 1`, dialogID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, classify(fmt.Errorf("failed to find last message: %w", err))
	}

	var lastID sql.NullString
	var lastAt sql.NullTime
	if last != nil {
		lastID = sql.NullString{String: last.ID, Valid: true}
		lastAt = sql.NullTime{Time: last.CreatedAt, Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE dialogs SET last_message_id = $2, last_message_at = $3 WHERE id = $1`,
		dialogID, lastID, lastAt); err != nil {
		return nil, classify(fmt.Errorf("failed to write last message: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit last message repair: %w", err))
	}
	return last, nil
}
