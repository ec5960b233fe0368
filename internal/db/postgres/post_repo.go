package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Flock/internal/core/posts"

	"github.com/lib/pq"
)

type postgresPostRepo struct {
	store
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB, timeout time.Duration) posts.Repository {
	return &postgresPostRepo{store: newStore(db, timeout)}
}

func scanPost(row interface{ Scan(...any) error }, p *posts.Post, extra ...any) error {
	dest := []any{&p.ID, &p.AuthorID, &p.Text, pq.Array(&p.Images), &p.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

// Create inserts the post and its empty like set in one transaction
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, text, images, created_at) VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.AuthorID, post.Text, pq.Array(post.Images), post.CreatedAt)
	if err != nil {
		return classify(fmt.Errorf("failed to insert post: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO post_likes (post_id) VALUES ($1)`, post.ID); err != nil {
		return classify(fmt.Errorf("failed to create like set: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit post: %w", err))
	}
	return nil
}

func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	p := &posts.Post{}
	err := scanPost(r.db.QueryRowContext(ctx, `SELECT id, author_id, text, images, created_at FROM posts WHERE id = $1`, id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrPostNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get post: %w", err))
	}
	return p, nil
}

func (r *postgresPostRepo) ListByAuthor(ctx context.Context, authorID string) ([]*posts.PostView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.author_id, p.text, p.images, p.created_at, ` + profileColumns("u") + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list posts: %w", err))
	}
	defer closeRows(rows)

	return scanPostViews(rows)
}

func (r *postgresPostRepo) List(ctx context.Context, offset, limit int) ([]*posts.PostView, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.author_id, p.text, p.images, p.created_at, ` + profileColumns("u") + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
		OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list posts: %w", err))
	}
	defer closeRows(rows)

	return scanPostViews(rows)
}

func (r *postgresPostRepo) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("failed to count posts: %w", err))
	}
	return n, nil
}

func scanPostViews(rows *sql.Rows) ([]*posts.PostView, error) {
	result := []*posts.PostView{}
	for rows.Next() {
		p := &posts.Post{}
		var author profile
		if err := scanPost(rows, p, author.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		result = append(result, &posts.PostView{Post: p, Author: author.view()})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating post rows: %w", err))
	}
	return result, nil
}

// Delete removes the post; its like set and comments go with it by cascade
func (r *postgresPostRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete post: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return posts.ErrPostNotFound
	}
	return nil
}

func (r *postgresPostRepo) CreateComment(ctx context.Context, c *posts.Comment) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.AuthorID, c.Message, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "comments_post_id_fkey" {
			return posts.ErrPostNotFound
		}
		return classify(fmt.Errorf("failed to insert comment: %w", err))
	}
	return nil
}
