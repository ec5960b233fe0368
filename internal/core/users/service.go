package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"Flock/internal/core/apperr"

	"github.com/google/uuid"
)

// Usernames: 3-30 characters, alphanumeric plus underscore and dot, must start alphanumeric
var usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.]{2,29}$`)

// DefaultAvatar is assigned to users created without one
const DefaultAvatar = "https://res.cloudinary.com/flock/image/upload/v1/default-avatar.jpg"

type userService struct {
	userRepo UserRepository
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// CreateUser creates a new user and its empty follow mirrors
func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	user := &User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(strings.ToLower(req.Username)),
		Fullname: strings.TrimSpace(req.Fullname),
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Avatar:   strings.TrimSpace(req.Avatar),
		LastSeen: s.now().UTC(),
	}
	if user.Avatar == "" {
		user.Avatar = DefaultAvatar
	}

	// Repository will handle duplicate constraint errors
	return s.userRepo.Create(context.WithoutCancel(ctx), user)
}

// GetUserByID retrieves a user by id
func (s *userService) GetUserByID(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.NewValidationError("id", "user id is required")
	}
	return s.userRepo.GetByID(ctx, id)
}

// GetUserByUsername retrieves a user by username
func (s *userService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, apperr.NewValidationError("username", "username is required")
	}
	return s.userRepo.GetByUsername(ctx, username)
}

// GetProfile retrieves a user's public profile with follow counts relative to the viewer
func (s *userService) GetProfile(ctx context.Context, username, viewerID string) (*ProfileViewDetailed, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.GetProfileStats(ctx, user.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile stats: %w", err)
	}

	grid, err := s.userRepo.ListPostPreviews(ctx, []string{user.ID}, ProfileGridSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile posts: %w", err)
	}
	posts := grid[user.ID]
	if posts == nil {
		posts = []*PostPreview{}
	}

	return &ProfileViewDetailed{
		User:  user.View(),
		Bio:   user.Bio,
		Web:   user.Website,
		Stats: stats,
		Posts: posts,
	}, nil
}

// UpdateUser changes the caller's own profile fields
func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	if id == "" {
		return nil, apperr.NewValidationError("id", "user id is required")
	}
	req, err := normalizeUpdate(req)
	if err != nil {
		return nil, err
	}
	if req.Fullname == nil && req.Username == nil && req.Website == nil && req.Bio == nil {
		return nil, apperr.NewValidationError("body", "nothing to update")
	}
	return s.userRepo.Update(context.WithoutCancel(ctx), id, req)
}

// FindUsers returns users whose username or fullname contains query
func (s *userService) FindUsers(ctx context.Context, query string) ([]*ProfileView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.NewValidationError("user", "search query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, apperr.NewValidationError("user", fmt.Sprintf("search query must not exceed %d characters", MaxQueryLength))
	}

	found, err := s.userRepo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	views := make([]*ProfileView, len(found))
	for i, u := range found {
		views[i] = u.View()
	}
	return views, nil
}

// GetSuggestedUsers samples users the viewer does not follow, each with a
// few recent posts
func (s *userService) GetSuggestedUsers(ctx context.Context, viewerID string, limit int) ([]*SuggestedUser, error) {
	if viewerID == "" {
		return nil, apperr.NewValidationError("viewer", "viewer is required")
	}
	if limit <= 0 {
		limit = DefaultSuggestions
	}
	if limit > MaxSuggestions {
		return nil, apperr.NewValidationError("max", fmt.Sprintf("max must not exceed %d", MaxSuggestions))
	}

	suggested, err := s.userRepo.ListSuggested(ctx, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggested users: %w", err)
	}
	if len(suggested) == 0 {
		return []*SuggestedUser{}, nil
	}

	ids := make([]string, len(suggested))
	for i, u := range suggested {
		ids[i] = u.ID
	}
	previews, err := s.userRepo.ListPostPreviews(ctx, ids, SuggestionPreviewSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestion previews: %w", err)
	}
	for _, u := range suggested {
		u.RecentPosts = previews[u.ID]
		if u.RecentPosts == nil {
			u.RecentPosts = []*PostPreview{}
		}
	}
	return suggested, nil
}

// TouchLastSeen records that the user made a request just now
func (s *userService) TouchLastSeen(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.userRepo.TouchLastSeen(ctx, id, s.now().UTC())
}

func normalizeUpdate(req UpdateUserRequest) (UpdateUserRequest, error) {
	if req.Username != nil {
		username := strings.TrimSpace(strings.ToLower(*req.Username))
		if !usernameRegex.MatchString(username) {
			return req, apperr.NewValidationError("username", "username must be 3-30 characters of letters, digits, '_' or '.', starting with a letter or digit")
		}
		req.Username = &username
	}
	if req.Fullname != nil {
		fullname := strings.TrimSpace(*req.Fullname)
		if fullname == "" {
			return req, apperr.NewValidationError("fullname", "fullname must not be empty")
		}
		req.Fullname = &fullname
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return req, apperr.NewValidationError("bio", fmt.Sprintf("bio must not exceed %d characters", MaxBioLength))
		}
		req.Bio = &bio
	}
	if req.Website != nil {
		website := strings.TrimSpace(*req.Website)
		if utf8.RuneCountInString(website) > MaxWebsiteLength {
			return req, apperr.NewValidationError("website", fmt.Sprintf("website must not exceed %d characters", MaxWebsiteLength))
		}
		if website != "" && !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
			return req, apperr.NewValidationError("website", "website must be an http(s) URL")
		}
		req.Website = &website
	}
	return req, nil
}

func (s *userService) validateCreateRequest(req CreateUserRequest) error {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" {
		return apperr.NewValidationError("username", "username is required")
	}
	if !usernameRegex.MatchString(username) {
		return apperr.NewValidationError("username", "username must be 3-30 characters of letters, digits, '_' or '.', starting with a letter or digit")
	}

	if strings.TrimSpace(req.Fullname) == "" {
		return apperr.NewValidationError("fullname", "fullname is required")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return apperr.NewValidationError("email", "email is required")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return apperr.NewValidationError("email", "email is invalid")
	}

	return nil
}
