package posts

import (
	"time"

	"Flock/internal/core/users"
)

const (
	// MaxTextLength is the maximum post caption length in runes
	MaxTextLength = 280

	// MaxImages is the maximum number of images attached to one post
	MaxImages = 10

	// MaxCommentLength is the maximum comment length in runes
	MaxCommentLength = 1000

	// DefaultListLimit and MaxListLimit bound a page of the global post list
	DefaultListLimit = 6
	MaxListLimit     = 50
)

// Post is an image post. Every post owns exactly one like set, created with
// the post and deleted with it.
type Post struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Text      string    `json:"text" db:"text"`
	Images    []string  `json:"images" db:"images"`
}

// PostView is a post with its author's public profile
type PostView struct {
	*Post
	Author *users.ProfileView `json:"author"`
}

// Comment belongs to a post and is removed with it
type Comment struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Message   string    `json:"message" db:"message"`
}

// CommentView is a comment with its author's public profile
type CommentView struct {
	*Comment
	Author *users.ProfileView `json:"author"`
}

// CreatePostRequest represents input for creating a new post
type CreatePostRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

// CreateCommentRequest represents input for commenting on a post
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// PostPage is one page of every post, newest first
type PostPage struct {
	Posts []*PostView `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
