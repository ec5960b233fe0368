package dialogs

import (
	"time"

	"Flock/internal/core/users"
)

// Dialog is a two-party conversation. LastMessageID is a denormalized pointer
// at the newest non-deleted message of the dialog, nil when it has none.
// It is only ever written by the message store.
type Dialog struct {
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
	LastMessageID *string    `json:"lastMessageId" db:"last_message_id"`
	ID            string     `json:"id" db:"id"`
	AuthorID      string     `json:"authorId" db:"author_id"`
	PartnerID     string     `json:"partnerId" db:"partner_id"`
}

// HasParticipant reports whether userID is the author or the partner
func (d *Dialog) HasParticipant(userID string) bool {
	return userID != "" && (d.AuthorID == userID || d.PartnerID == userID)
}

// Counterpart returns the participant that is not userID
func (d *Dialog) Counterpart(userID string) string {
	if d.AuthorID == userID {
		return d.PartnerID
	}
	return d.AuthorID
}

// Participants returns both participant ids, author first
func (d *Dialog) Participants() []string {
	return []string{d.AuthorID, d.PartnerID}
}

// LastMessage is the projection of a dialog's newest message shown in dialog lists
type LastMessage struct {
	CreatedAt time.Time          `json:"createdAt"`
	User      *users.ProfileView `json:"user"`
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Text      string             `json:"text"`
	Read      bool               `json:"read"`
}

// DialogView is a dialog enriched for the viewer: the counterpart's profile and the last message
type DialogView struct {
	*Dialog
	Author      *users.ProfileView `json:"author"`
	Partner     *users.ProfileView `json:"partner"`
	LastMessage *LastMessage       `json:"lastMessage"`
}
