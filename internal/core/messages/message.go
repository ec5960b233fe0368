package messages

import (
	"time"

	"Flock/internal/core/users"
)

const (
	// MaxTextLength is the maximum message length in runes
	MaxTextLength = 4000

	// MaxAttachments is the maximum number of attachments per message
	MaxAttachments = 10
)

// Message belongs to exactly one dialog by foreign key. Read flips to true
// in bulk when the other participant reads the dialog.
type Message struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	ID          string    `json:"id" db:"id"`
	DialogID    string    `json:"dialogId" db:"dialog_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Text        string    `json:"text" db:"text"`
	Attachments []string  `json:"attachments" db:"attachments"`
	Read        bool      `json:"read" db:"read"`
}

// MessageView is a message enriched with its sender's public profile
type MessageView struct {
	*Message
	User *users.ProfileView `json:"user"`
}

// SendMessageRequest represents input for sending a message into a dialog
type SendMessageRequest struct {
	DialogID    string   `json:"dialogId"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}
