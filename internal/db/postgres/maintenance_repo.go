package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MaintenanceRepository holds housekeeping statements run by the scheduler
type MaintenanceRepository struct {
	store
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *sql.DB, timeout time.Duration) *MaintenanceRepository {
	return &MaintenanceRepository{store: newStore(db, timeout)}
}

// PurgeOrphanMessages deletes messages whose dialog was deleted
func (r *MaintenanceRepository) PurgeOrphanMessages(ctx context.Context) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		DELETE FROM messages m
		WHERE NOT EXISTS (SELECT 1 FROM dialogs d WHERE d.id = m.dialog_id)`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to purge orphan messages: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
