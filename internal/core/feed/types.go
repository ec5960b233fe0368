package feed

import (
	"context"

	"Flock/internal/core/posts"
	"Flock/internal/core/users"
)

const (
	// DefaultPageSize is the number of posts per feed page
	DefaultPageSize = 5

	// MaxPageSize bounds a single feed page
	MaxPageSize = 50

	// RecentComments is how many comments are attached to each feed post
	RecentComments = 3
)

// FeedPost is a post from a followed author with everything needed to render it
type FeedPost struct {
	*posts.Post
	Author       *users.ProfileView   `json:"author"`
	Likes        []string             `json:"likes"`
	Comments     []*posts.CommentView `json:"comments"`
	CommentCount int                  `json:"commentCount"`
}

// Repository reads posts and their enrichment in batches keyed by post id
type Repository interface {
	// ListFollowedPosts returns posts by the authors in userID's following row,
	// newest first with author profiles, windowed by offset/limit
	ListFollowedPosts(ctx context.Context, userID string, offset, limit int) ([]*posts.PostView, error)
	GetLikeSets(ctx context.Context, postIDs []string) (map[string][]string, error)

	// GetRecentComments returns up to perPost newest comments per post, newest first
	GetRecentComments(ctx context.Context, postIDs []string, perPost int) (map[string][]*posts.CommentView, error)
	CountComments(ctx context.Context, postIDs []string) (map[string]int, error)
}

// Service assembles feed pages
type Service interface {
	BuildFeed(ctx context.Context, userID string, offset, pageSize int) ([]*FeedPost, error)
}
