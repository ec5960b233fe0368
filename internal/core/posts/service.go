package posts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"Flock/internal/core/apperr"

	"github.com/google/uuid"
)

type postService struct {
	repo   Repository
	users  UserLookup
	logger *slog.Logger
}

// NewPostService creates a new post service
func NewPostService(repo Repository, users UserLookup, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &postService{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*PostView, error) {
	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, apperr.NewValidationError("text", fmt.Sprintf("text must not exceed %d characters", MaxTextLength))
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return nil, apperr.NewValidationError("images", "at least one image is required")
	}
	if len(images) > MaxImages {
		return nil, apperr.NewValidationError("images", fmt.Sprintf("at most %d images are allowed", MaxImages))
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	post := &Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", "post", post.ID, "author", authorID, "images", len(images))

	return &PostView{Post: post, Author: author.View()}, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*PostView, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}
	return &PostView{Post: post, Author: author.View()}, nil
}

func (s *postService) ListUserPosts(ctx context.Context, userID string) ([]*PostView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	views, err := s.repo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return views, nil
}

func (s *postService) ListPosts(ctx context.Context, page, limit int) (*PostPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, apperr.NewValidationError("limit", fmt.Sprintf("limit must not exceed %d", MaxListLimit))
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	list, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &PostPage{Posts: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *postService) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotAuthor
	}

	if err := s.repo.Delete(context.WithoutCancel(ctx), post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("post deleted", "post", post.ID, "author", requesterID)
	return nil
}

func (s *postService) CreateComment(ctx context.Context, authorID, postID string, req CreateCommentRequest) (*CommentView, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperr.NewValidationError("message", "message is required")
	}
	if utf8.RuneCountInString(message) > MaxCommentLength {
		return nil, apperr.NewValidationError("message", fmt.Sprintf("message must not exceed %d characters", MaxCommentLength))
	}

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	comment := &Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateComment(context.WithoutCancel(ctx), comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &CommentView{Comment: comment, Author: author.View()}, nil
}
