package feed

import (
	"context"
	"fmt"

	"Flock/internal/core/apperr"
	"Flock/internal/core/posts"

	"golang.org/x/sync/errgroup"
)

type feedService struct {
	repo Repository
}

// NewFeedService creates a new feed service
func NewFeedService(repo Repository) Service {
	return &feedService{repo: repo}
}

// BuildFeed returns one page of posts by the authors userID follows.
// Likes, recent comments and comment counts are loaded concurrently once the
// page of posts is known.
func (s *feedService) BuildFeed(ctx context.Context, userID string, offset, pageSize int) ([]*FeedPost, error) {
	if offset < 0 {
		return nil, apperr.NewValidationError("offset", "offset must not be negative")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return nil, apperr.NewValidationError("limit", fmt.Sprintf("limit must not exceed %d", MaxPageSize))
	}

	page, err := s.repo.ListFollowedPosts(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed posts: %w", err)
	}
	if len(page) == 0 {
		return []*FeedPost{}, nil
	}

	ids := make([]string, len(page))
	for i, p := range page {
		ids[i] = p.ID
	}

	var (
		likes    map[string][]string
		comments map[string][]*posts.CommentView
		counts   map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likes, err = s.repo.GetLikeSets(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load likes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = s.repo.GetRecentComments(gctx, ids, RecentComments)
		if err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountComments(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to count comments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*FeedPost, len(page))
	for i, p := range page {
		fp := &FeedPost{
			Post:         p.Post,
			Author:       p.Author,
			Likes:        likes[p.ID],
			Comments:     comments[p.ID],
			CommentCount: counts[p.ID],
		}
		if fp.Likes == nil {
			fp.Likes = []string{}
		}
		if fp.Comments == nil {
			fp.Comments = []*posts.CommentView{}
		}
		out[i] = fp
	}
	return out, nil
}
