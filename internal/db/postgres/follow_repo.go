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

type postgresFollowRepo struct {
	store
}

// NewFollowRepository creates the repository for the followers/following mirrors
func NewFollowRepository(db *sql.DB, timeout time.Duration) graph.FollowRepository {
	return &postgresFollowRepo{store: newStore(db, timeout)}
}

// Mirror rows are upserted so a user created before the mirrors existed
// still gets a document on first follow.
const (
	addFollowerQuery = `
		INSERT INTO followers (user_id, follower_ids) VALUES ($1, ARRAY[$2::text])
		ON CONFLICT (user_id) DO UPDATE
		SET follower_ids = array_append(followers.follower_ids, $2::text)
		WHERE NOT ($2::text = ANY(followers.follower_ids))`

	addFollowingQuery = `
		INSERT INTO following (user_id, following_ids) VALUES ($1, ARRAY[$2::text])
		ON CONFLICT (user_id) DO UPDATE
		SET following_ids = array_append(following.following_ids, $2::text)
		WHERE NOT ($2::text = ANY(following.following_ids))`

	removeFollowerQuery = `
		UPDATE followers SET follower_ids = array_remove(follower_ids, $2::text)
		WHERE user_id = $1 AND $2::text = ANY(follower_ids)`

	removeFollowingQuery = `
		UPDATE following SET following_ids = array_remove(following_ids, $2::text)
		WHERE user_id = $1 AND $2::text = ANY(following_ids)`
)

func (r *postgresFollowRepo) AddFollower(ctx context.Context, ownerID, followerID string) (bool, error) {
	return r.conditional(ctx, "add follower", addFollowerQuery, ownerID, followerID)
}

func (r *postgresFollowRepo) AddFollowing(ctx context.Context, ownerID, followingID string) (bool, error) {
	return r.conditional(ctx, "add following", addFollowingQuery, ownerID, followingID)
}

func (r *postgresFollowRepo) RemoveFollower(ctx context.Context, ownerID, followerID string) (bool, error) {
	return r.conditional(ctx, "remove follower", removeFollowerQuery, ownerID, followerID)
}

func (r *postgresFollowRepo) RemoveFollowing(ctx context.Context, ownerID, followingID string) (bool, error) {
	return r.conditional(ctx, "remove following", removeFollowingQuery, ownerID, followingID)
}

// conditional runs a single-row conditional statement and reports whether it matched
func (r *postgresFollowRepo) conditional(ctx context.Context, op, query, ownerID, memberID string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, ownerID, memberID)
	if err != nil {
		return false, classify(fmt.Errorf("failed to %s: %w", op, err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *postgresFollowRepo) GetFollowers(ctx context.Context, userID string) ([]string, error) {
	return r.getMirror(ctx, `SELECT follower_ids FROM followers WHERE user_id = $1`, userID)
}

func (r *postgresFollowRepo) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	return r.getMirror(ctx, `SELECT following_ids FROM following WHERE user_id = $1`, userID)
}

func (r *postgresFollowRepo) getMirror(ctx context.Context, query, userID string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var ids []string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(pq.Array(&ids))
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to read follow mirror: %w", err))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ScanFollowingEdges flattens following into (owner follows member) edges.
// The scan is not bounded by the store timeout because it reads the whole table.
func (r *postgresFollowRepo) ScanFollowingEdges(ctx context.Context) ([]graph.FollowEdge, error) {
	return r.scanEdges(ctx, `SELECT user_id, unnest(following_ids) FROM following`, false)
}

// ScanFollowerEdges flattens followers into (member follows owner) edges
func (r *postgresFollowRepo) ScanFollowerEdges(ctx context.Context) ([]graph.FollowEdge, error) {
	return r.scanEdges(ctx, `SELECT user_id, unnest(follower_ids) FROM followers`, true)
}

func (r *postgresFollowRepo) scanEdges(ctx context.Context, query string, ownerIsFollowed bool) ([]graph.FollowEdge, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to scan follow mirror: %w", err))
	}
	defer closeRows(rows)

	var edges []graph.FollowEdge
	for rows.Next() {
		var owner, member string
		if err := rows.Scan(&owner, &member); err != nil {
			return nil, fmt.Errorf("failed to scan follow edge: %w", err)
		}
		if ownerIsFollowed {
			edges = append(edges, graph.FollowEdge{FollowerID: member, FollowingID: owner})
		} else {
			edges = append(edges, graph.FollowEdge{FollowerID: owner, FollowingID: member})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating follow edges: %w", err))
	}
	return edges, nil
}
