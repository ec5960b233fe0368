package posts

import (
	"context"

	"Flock/internal/core/users"
)

// Service defines the business logic interface for posts and comments
type Service interface {
	// CreatePost stores the post together with its empty like set
	CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*PostView, error)
	GetPost(ctx context.Context, postID string) (*PostView, error)
	ListUserPosts(ctx context.Context, userID string) ([]*PostView, error)

	// ListPosts pages through every post newest first. page is 1-based.
	ListPosts(ctx context.Context, page, limit int) (*PostPage, error)

	// DeletePost removes the post, its like set and its comments. Author only.
	DeletePost(ctx context.Context, requesterID, postID string) error

	CreateComment(ctx context.Context, authorID, postID string, req CreateCommentRequest) (*CommentView, error)
}

// Repository defines the data access interface for posts
type Repository interface {
	// Create inserts the post and its empty like set atomically
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*PostView, error)
	List(ctx context.Context, offset, limit int) ([]*PostView, error)
	Count(ctx context.Context) (int, error)

	// Delete removes the post, its like set and its comments atomically
	Delete(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *Comment) error
}

// UserLookup resolves authors
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}
