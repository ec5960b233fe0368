package users

import (
	"context"
	"time"
)

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// Create inserts the user together with its empty follower and following mirrors.
	// Both mirrors must exist before the first toggle-follow touches this user.
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByIDs retrieves multiple users in a single batch query.
	// Missing users are not included in the result map (no error for missing users).
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)

	// GetProfileStats returns post and follow counts for userID and whether
	// viewerID currently follows them. viewerID may be empty.
	GetProfileStats(ctx context.Context, userID, viewerID string) (*ProfileStats, error)

	TouchLastSeen(ctx context.Context, id string, at time.Time) error

	// Update applies the non-nil fields of req and returns the stored user
	Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error)

	// Search matches query case-insensitively against username and fullname
	Search(ctx context.Context, query string, limit int) ([]*User, error)

	// ListSuggested samples up to limit users other than viewerID whose
	// followers row does not contain viewerID, most prolific first
	ListSuggested(ctx context.Context, viewerID string, limit int) ([]*SuggestedUser, error)

	// ListPostPreviews returns up to perAuthor newest posts per author
	ListPostPreviews(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]*PostPreview, error)
}

// UserService defines the interface for user business logic
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetProfile(ctx context.Context, username, viewerID string) (*ProfileViewDetailed, error)
	TouchLastSeen(ctx context.Context, id string) error

	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
	FindUsers(ctx context.Context, query string) ([]*ProfileView, error)
	GetSuggestedUsers(ctx context.Context, viewerID string, limit int) ([]*SuggestedUser, error)
}
