package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Flock/internal/core/feed"
	"Flock/internal/core/posts"

	"github.com/lib/pq"
)

type postgresFeedRepo struct {
	store
}

// NewFeedRepository creates the read-only repository behind the feed
func NewFeedRepository(db *sql.DB, timeout time.Duration) feed.Repository {
	return &postgresFeedRepo{store: newStore(db, timeout)}
}

// ListFollowedPosts resolves the author set inside the query so the size of
// the following row never travels as a parameter. Orders by creation time
// only; ties fall back to storage order.
func (r *postgresFeedRepo) ListFollowedPosts(ctx context.Context, userID string, offset, limit int) ([]*posts.PostView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.author_id, p.text, p.images, p.created_at, ` + profileColumns("u") + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id IN (
			SELECT unnest(f.following_ids) FROM following f WHERE f.user_id = $1
		)
		ORDER BY p.created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list feed posts: %w", err))
	}
	defer closeRows(rows)

	return scanPostViews(rows)
}

func (r *postgresFeedRepo) GetLikeSets(ctx context.Context, postIDs []string) (map[string][]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT post_id, liker_ids FROM post_likes WHERE post_id = ANY($1)`, pq.Array(postIDs))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load like sets: %w", err))
	}
	defer closeRows(rows)

	result := make(map[string][]string, len(postIDs))
	for rows.Next() {
		var postID string
		var likers []string
		if err := rows.Scan(&postID, pq.Array(&likers)); err != nil {
			return nil, fmt.Errorf("failed to scan like set: %w", err)
		}
		result[postID] = likers
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating like sets: %w", err))
	}
	return result, nil
}

func (r *postgresFeedRepo) GetRecentComments(ctx context.Context, postIDs []string, perPost int) (map[string][]*posts.CommentView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT c.id, c.post_id, c.author_id, c.message, c.created_at, ` + profileColumns("u") + `
		FROM (
			SELECT id, post_id, author_id, message, created_at,
				ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC) AS rn
			FROM comments
			WHERE post_id = ANY($1)
		) c
		JOIN users u ON u.id = c.author_id
		WHERE c.rn <= $2
		ORDER BY c.post_id, c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs), perPost)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load recent comments: %w", err))
	}
	defer closeRows(rows)

	result := make(map[string][]*posts.CommentView, len(postIDs))
	for rows.Next() {
		c := &posts.Comment{}
		var author profile
		dest := append([]any{&c.ID, &c.PostID, &c.AuthorID, &c.Message, &c.CreatedAt}, author.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result[c.PostID] = append(result[c.PostID], &posts.CommentView{Comment: c, Author: author.view()})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating comments: %w", err))
	}
	return result, nil
}

func (r *postgresFeedRepo) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT post_id, COUNT(*) FROM comments WHERE post_id = ANY($1) GROUP BY post_id`, pq.Array(postIDs))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to count comments: %w", err))
	}
	defer closeRows(rows)

	result := make(map[string]int, len(postIDs))
	for rows.Next() {
		var postID string
		var n int
		if err := rows.Scan(&postID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		result[postID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating comment counts: %w", err))
	}
	return result, nil
}
