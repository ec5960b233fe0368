package users

import (
	"time"
)

// OnlineWindow is how recently a user must have been seen to count as online
const OnlineWindow = 5 * time.Minute

const (
	// ProfileGridSize is how many recent posts a profile shows
	ProfileGridSize = 12

	// SuggestionPreviewSize is how many recent posts accompany a suggestion
	SuggestionPreviewSize = 3

	DefaultSuggestions = 20
	MaxSuggestions     = 50

	// SearchLimit caps the users returned by a search
	SearchLimit = 20

	MaxBioLength     = 150
	MaxWebsiteLength = 200
	MaxQueryLength   = 100
)

// User represents an account in the users table.
// Email is private and never leaves the service through a view type.
type User struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	LastSeen  time.Time `json:"lastSeen" db:"last_seen"`
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Fullname  string    `json:"fullname" db:"fullname"`
	Email     string    `json:"-" db:"email"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Bio       string    `json:"bio,omitempty" db:"bio"`
	Website   string    `json:"website,omitempty" db:"website"`
}

// IsOnline reports whether the user was seen within OnlineWindow of now
func (u *User) IsOnline(now time.Time) bool {
	return now.Sub(u.LastSeen) < OnlineWindow
}

// View strips private fields for embedding in dialogs, messages, posts and comments
func (u *User) View() *ProfileView {
	if u == nil {
		return nil
	}
	return &ProfileView{
		ID:       u.ID,
		Username: u.Username,
		Fullname: u.Fullname,
		Avatar:   u.Avatar,
		LastSeen: u.LastSeen,
		IsOnline: u.IsOnline(time.Now()),
	}
}

// ProfileView is the public projection of a user
type ProfileView struct {
	LastSeen time.Time `json:"lastSeen"`
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Fullname string    `json:"fullname,omitempty"`
	Avatar   string    `json:"avatar"`
	IsOnline bool      `json:"isOnline"`
}

// CreateUserRequest represents the input for creating a new user
type CreateUserRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// ProfileStats contains aggregated user statistics
type ProfileStats struct {
	PostCount      int  `json:"postCount"`
	FollowerCount  int  `json:"followers"`
	FollowingCount int  `json:"following"`
	IsFollowing    bool `json:"isFollowing"`
}

// ProfileViewDetailed is the full profile response
type ProfileViewDetailed struct {
	User  *ProfileView   `json:"user"`
	Bio   string         `json:"bio,omitempty"`
	Web   string         `json:"website,omitempty"`
	Stats *ProfileStats  `json:"stats"`
	Posts []*PostPreview `json:"posts"`
}

// PostPreview is a post thumbnail with its counters, used by profile grids
// and suggestions
type PostPreview struct {
	CreatedAt    time.Time `json:"createdAt"`
	ID           string    `json:"id"`
	Images       []string  `json:"images"`
	LikeCount    int       `json:"likes"`
	CommentCount int       `json:"comments"`
}

// SuggestedUser is somebody the viewer does not follow yet
type SuggestedUser struct {
	*ProfileView
	RecentPosts []*PostPreview `json:"posts"`
	PostCount   int            `json:"postCount"`
}

// UpdateUserRequest changes profile fields. Nil fields are left untouched.
type UpdateUserRequest struct {
	Fullname *string `json:"fullname,omitempty"`
	Username *string `json:"username,omitempty"`
	Website  *string `json:"website,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}
