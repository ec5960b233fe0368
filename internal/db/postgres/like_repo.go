package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Flock/internal/core/graph"

	"github.com/lib/pq"
)

type postgresLikeRepo struct {
	store
}

// NewLikeRepository creates the repository for per-post like sets
func NewLikeRepository(db *sql.DB, timeout time.Duration) graph.LikeRepository {
	return &postgresLikeRepo{store: newStore(db, timeout)}
}

func (r *postgresLikeRepo) AddLike(ctx context.Context, postID, likerID string) (bool, error) {
	query := `
		UPDATE post_likes SET liker_ids = array_append(liker_ids, $2::text)
		WHERE post_id = $1 AND NOT ($2::text = ANY(liker_ids))`
	return r.conditional(ctx, "add like", query, postID, likerID)
}

func (r *postgresLikeRepo) RemoveLike(ctx context.Context, postID, likerID string) (bool, error) {
	query := `
		UPDATE post_likes SET liker_ids = array_remove(liker_ids, $2::text)
		WHERE post_id = $1 AND $2::text = ANY(liker_ids)`
	return r.conditional(ctx, "remove like", query, postID, likerID)
}

// conditional tells "no change" apart from "no like set" with a follow-up
// existence check only when the update matched nothing
func (r *postgresLikeRepo) conditional(ctx context.Context, op, query, postID, likerID string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, postID, likerID)
	if err != nil {
		return false, classify(fmt.Errorf("failed to %s: %w", op, err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1)`, postID).Scan(&exists); err != nil {
		return false, classify(fmt.Errorf("failed to check like set: %w", err))
	}
	if !exists {
		return false, graph.ErrLikeSetNotFound
	}
	return false, nil
}

func (r *postgresLikeRepo) GetLikes(ctx context.Context, postID string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var ids []string
	err := r.db.QueryRowContext(ctx, `SELECT liker_ids FROM post_likes WHERE post_id = $1`, postID).Scan(pq.Array(&ids))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrLikeSetNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get likes: %w", err))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
