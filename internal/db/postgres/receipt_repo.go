package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Flock/internal/core/receipts"
)

type postgresReceiptRepo struct {
	store
}

// NewReceiptRepository creates the repository backing read receipts
func NewReceiptRepository(db *sql.DB, timeout time.Duration) receipts.Repository {
	return &postgresReceiptRepo{store: newStore(db, timeout)}
}

func (r *postgresReceiptRepo) MarkRead(ctx context.Context, dialogID, readerID string) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `UPDATE messages SET read = TRUE WHERE dialog_id = $1 AND user_id <> $2 AND NOT read`

	result, err := r.db.ExecContext(ctx, query, dialogID, readerID)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to mark messages read: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

func (r *postgresReceiptRepo) UnreadDialogCount(ctx context.Context, userID string) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM dialogs d
		JOIN messages m ON m.id = d.last_message_id
		WHERE (d.author_id = $1 OR d.partner_id = $1)
		  AND NOT m.read
		  AND m.user_id <> $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("failed to count unread dialogs: %w", err))
	}
	return n, nil
}
