package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"Flock/internal/core/apperr"
	"Flock/internal/core/users"

	"github.com/lib/pq"
)

type postgresUserRepo struct {
	store
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB, timeout time.Duration) users.UserRepository {
	return &postgresUserRepo{store: newStore(db, timeout)}
}

const userColumns = `id, username, fullname, email, avatar, bio, website, last_seen, created_at`

func scanUser(row interface{ Scan(...any) error }, u *users.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Fullname, &u.Email, &u.Avatar, &u.Bio, &u.Website, &u.LastSeen, &u.CreatedAt)
}

// Create inserts the user and both empty follow mirrors in one transaction
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	query := `
		INSERT INTO users (id, username, fullname, email, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	created := &users.User{}
	err = scanUser(tx.QueryRowContext(ctx, query, user.ID, user.Username, user.Fullname, user.Email, user.Avatar), created)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return nil, users.ErrUsernameTaken
		case isUniqueViolation(err, "users_email_key"):
			return nil, users.ErrEmailTaken
		}
		return nil, classify(fmt.Errorf("failed to create user: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO followers (user_id) VALUES ($1)`, created.ID); err != nil {
		return nil, classify(fmt.Errorf("failed to create followers mirror: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO following (user_id) VALUES ($1)`, created.ID); err != nil {
		return nil, classify(fmt.Errorf("failed to create following mirror: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit user: %w", err))
	}
	return created, nil
}

func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *postgresUserRepo) getOne(ctx context.Context, query string, arg string) (*users.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	user := &users.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, arg), user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

// GetByIDs retrieves multiple users in a single query.
// Missing users are not included in the result map.
func (r *postgresUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	if len(ids) == 0 {
		return make(map[string]*users.User), nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum %d", len(ids), MaxBatchSize)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query users by ids: %w", err))
	}
	defer closeRows(rows)

	result := make(map[string]*users.User, len(ids))
	for rows.Next() {
		user := &users.User{}
		if err := scanUser(rows, user); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating user rows: %w", err))
	}
	return result, nil
}

// GetProfileStats reads the counts with scalar subqueries in one round trip
func (r *postgresUserRepo) GetProfileStats(ctx context.Context, userID, viewerID string) (*users.ProfileStats, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = $1),
			COALESCE((SELECT cardinality(follower_ids) FROM followers WHERE user_id = $1), 0),
			COALESCE((SELECT cardinality(following_ids) FROM following WHERE user_id = $1), 0),
			EXISTS (SELECT 1 FROM following WHERE user_id = $2 AND $1 = ANY(following_ids))`

	stats := &users.ProfileStats{}
	err := r.db.QueryRowContext(ctx, query, userID, viewerID).
		Scan(&stats.PostCount, &stats.FollowerCount, &stats.FollowingCount, &stats.IsFollowing)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get profile stats: %w", err))
	}
	return stats, nil
}

func (r *postgresUserRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = $2 WHERE id = $1`, id, at)
	if err != nil {
		return classify(fmt.Errorf("failed to update last seen: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// Update applies the non-nil fields of req; COALESCE keeps the rest
func (r *postgresUserRepo) Update(ctx context.Context, id string, req users.UpdateUserRequest) (*users.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		UPDATE users SET
			fullname = COALESCE($2, fullname),
			username = COALESCE($3, username),
			website = COALESCE($4, website),
			bio = COALESCE($5, bio)
		WHERE id = $1
		RETURNING ` + userColumns

	updated := &users.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id, req.Fullname, req.Username, req.Website, req.Bio), updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, users.ErrUserNotFound
	case isUniqueViolation(err, "users_username_key"):
		return nil, users.ErrUsernameTaken
	case err != nil:
		return nil, classify(fmt.Errorf("failed to update user: %w", err))
	}
	return updated, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches a substring of username or fullname, ignoring case
func (r *postgresUserRepo) Search(ctx context.Context, query string, limit int) ([]*users.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE $1 OR fullname ILIKE $1
		ORDER BY username
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to search users: %w", err))
	}
	defer closeRows(rows)

	result := []*users.User{}
	for rows.Next() {
		user := &users.User{}
		if err := scanUser(rows, user); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating user rows: %w", err))
	}
	return result, nil
}

// ListSuggested reads the followers mirror: a candidate qualifies when the
// viewer is absent from its followers row
func (r *postgresUserRepo) ListSuggested(ctx context.Context, viewerID string, limit int) ([]*users.SuggestedUser, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT s.id, s.username, s.fullname, s.avatar, s.last_seen, s.post_count
		FROM (
			SELECT ` + profileColumns("u") + `,
				(SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id) AS post_count
			FROM users u
			JOIN followers f ON f.user_id = u.id
			WHERE u.id <> $1 AND NOT ($1 = ANY(f.follower_ids))
			ORDER BY random()
			LIMIT $2
		) s
		ORDER BY s.post_count DESC, s.username`

	rows, err := r.db.QueryContext(ctx, query, viewerID, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list suggested users: %w", err))
	}
	defer closeRows(rows)

	result := []*users.SuggestedUser{}
	for rows.Next() {
		var p profile
		var postCount int
		if err := rows.Scan(append(p.dest(), &postCount)...); err != nil {
			return nil, fmt.Errorf("failed to scan suggested user: %w", err)
		}
		result = append(result, &users.SuggestedUser{ProfileView: p.view(), PostCount: postCount})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating suggested users: %w", err))
	}
	return result, nil
}

// ListPostPreviews ranks each author's posts and keeps the newest perAuthor
func (r *postgresUserRepo) ListPostPreviews(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]*users.PostPreview, error) {
	result := make(map[string][]*users.PostPreview, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}
	if len(authorIDs) > MaxBatchSize {
		return nil, apperr.NewValidationError("authors", fmt.Sprintf("at most %d authors per batch", MaxBatchSize))
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.author_id, p.images, p.created_at,
			COALESCE(cardinality(l.liker_ids), 0),
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM (
			SELECT id, author_id, images, created_at,
				ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY created_at DESC) AS rn
			FROM posts
			WHERE author_id = ANY($1)
		) p
		LEFT JOIN post_likes l ON l.post_id = p.id
		WHERE p.rn <= $2
		ORDER BY p.author_id, p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(authorIDs), perAuthor)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list post previews: %w", err))
	}
	defer closeRows(rows)

	for rows.Next() {
		p := &users.PostPreview{}
		var authorID string
		if err := rows.Scan(&p.ID, &authorID, pq.Array(&p.Images), &p.CreatedAt, &p.LikeCount, &p.CommentCount); err != nil {
			return nil, fmt.Errorf("failed to scan post preview: %w", err)
		}
		result[authorID] = append(result[authorID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating post previews: %w", err))
	}
	return result, nil
}
