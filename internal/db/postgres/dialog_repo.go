package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Flock/internal/core/dialogs"
)

type postgresDialogRepo struct {
	store
}

// NewDialogRepository creates a new PostgreSQL dialog repository
func NewDialogRepository(db *sql.DB, timeout time.Duration) dialogs.Repository {
	return &postgresDialogRepo{store: newStore(db, timeout)}
}

const dialogColumns = `id, author_id, partner_id, last_message_id, last_message_at, created_at`

func scanDialog(row interface{ Scan(...any) error }, d *dialogs.Dialog) error {
	var lastID sql.NullString
	var lastAt sql.NullTime
	if err := row.Scan(&d.ID, &d.AuthorID, &d.PartnerID, &lastID, &lastAt, &d.CreatedAt); err != nil {
		return err
	}
	if lastID.Valid {
		d.LastMessageID = &lastID.String
	}
	if lastAt.Valid {
		d.LastMessageAt = &lastAt.Time
	}
	return nil
}

// GetOrCreate relies on the unique index over the unordered pair: the insert
// is skipped on conflict and the existing dialog is read back instead.
func (r *postgresDialogRepo) GetOrCreate(ctx context.Context, dialog *dialogs.Dialog) (*dialogs.Dialog, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	insert := `
		INSERT INTO dialogs (id, author_id, partner_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((LEAST(author_id, partner_id)), (GREATEST(author_id, partner_id))) DO NOTHING
		RETURNING ` + dialogColumns

	created := &dialogs.Dialog{}
	err := scanDialog(r.db.QueryRowContext(ctx, insert, dialog.ID, dialog.AuthorID, dialog.PartnerID, dialog.CreatedAt), created)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, classify(fmt.Errorf("failed to insert dialog: %w", err))
	}

	existing := &dialogs.Dialog{}
	query := `
		SELECT ` + dialogColumns + ` FROM dialogs
		WHERE LEAST(author_id, partner_id) = LEAST($1, $2)
		  AND GREATEST(author_id, partner_id) = GREATEST($1, $2)`
	err = scanDialog(r.db.QueryRowContext(ctx, query, dialog.AuthorID, dialog.PartnerID), existing)
	if errors.Is(err, sql.ErrNoRows) {
		// deleted between our insert and this read
		return nil, false, fmt.Errorf("%w: dialog vanished during creation", dialogs.ErrDialogNotFound)
	}
	if err != nil {
		return nil, false, classify(fmt.Errorf("failed to load existing dialog: %w", err))
	}
	return existing, false, nil
}

func (r *postgresDialogRepo) GetByID(ctx context.Context, id string) (*dialogs.Dialog, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	d := &dialogs.Dialog{}
	err := scanDialog(r.db.QueryRowContext(ctx, `SELECT `+dialogColumns+` FROM dialogs WHERE id = $1`, id), d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dialogs.ErrDialogNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get dialog: %w", err))
	}
	return d, nil
}

// ListForUser hydrates both participants and the last message in one query
func (r *postgresDialogRepo) ListForUser(ctx context.Context, userID string) ([]*dialogs.DialogView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT d.id, d.author_id, d.partner_id, d.last_message_id, d.last_message_at, d.created_at,
			` + profileColumns("a") + `,
			` + profileColumns("p") + `,
			m.id, m.user_id, m.text, m.read, m.created_at,
			` + profileColumns("mu") + `
		FROM dialogs d
		JOIN users a ON a.id = d.author_id
		JOIN users p ON p.id = d.partner_id
		LEFT JOIN messages m ON m.id = d.last_message_id
		LEFT JOIN users mu ON mu.id = m.user_id
		WHERE d.author_id = $1 OR d.partner_id = $1
		ORDER BY d.last_message_at DESC NULLS LAST, d.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list dialogs: %w", err))
	}
	defer closeRows(rows)

	result := []*dialogs.DialogView{}
	for rows.Next() {
		var (
			d                       dialogs.Dialog
			lastID                  sql.NullString
			lastAt                  sql.NullTime
			author, partner         profile
			msgID, msgUser, msgText sql.NullString
			msgRead                 sql.NullBool
			msgAt                   sql.NullTime
			sender                  nullableProfile
		)

		dest := []any{&d.ID, &d.AuthorID, &d.PartnerID, &lastID, &lastAt, &d.CreatedAt}
		dest = append(dest, author.dest()...)
		dest = append(dest, partner.dest()...)
		dest = append(dest, &msgID, &msgUser, &msgText, &msgRead, &msgAt)
		dest = append(dest, sender.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan dialog row: %w", err)
		}

		if lastID.Valid {
			d.LastMessageID = &lastID.String
		}
		if lastAt.Valid {
			d.LastMessageAt = &lastAt.Time
		}

		view := &dialogs.DialogView{
			Dialog:  &d,
			Author:  author.view(),
			Partner: partner.view(),
		}
		if msgID.Valid {
			view.LastMessage = &dialogs.LastMessage{
				ID:        msgID.String,
				UserID:    msgUser.String,
				Text:      msgText.String,
				Read:      msgRead.Bool,
				CreatedAt: msgAt.Time,
				User:      sender.view(),
			}
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating dialog rows: %w", err))
	}
	return result, nil
}

func (r *postgresDialogRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM dialogs WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete dialog: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return dialogs.ErrDialogNotFound
	}
	return nil
}
