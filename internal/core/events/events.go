// Package events defines the closed set of realtime events and the topics
// they are routed to.
package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"Flock/internal/core/dialogs"
	"Flock/internal/core/messages"
)

// Name is the wire name of an event
type Name string

const (
	NameDialogCreated            Name = "dialog-created"
	NameMessageCreated           Name = "message-created"
	NameMessageDeleted           Name = "message-deleted"
	NameDialogLastMessageChanged Name = "dialog-last-message-changed"
	NameMessagesRead             Name = "messages-read"
	NameTyping                   Name = "typing"
)

// Event is implemented only by the payload types in this package
type Event interface {
	Name() Name
	event()
}

// DialogCreated names both participants next to the dialog so a client can
// route it without unpacking the entity
type DialogCreated struct {
	Dialog    *dialogs.Dialog `json:"dialog"`
	DialogID  string          `json:"dialogId"`
	AuthorID  string          `json:"authorId"`
	PartnerID string          `json:"partnerId"`
}

// NewDialogCreated builds the event for d
func NewDialogCreated(d *dialogs.Dialog) DialogCreated {
	return DialogCreated{
		Dialog:    d,
		DialogID:  d.ID,
		AuthorID:  d.AuthorID,
		PartnerID: d.PartnerID,
	}
}

type MessageCreated struct {
	Message   *messages.MessageView `json:"message"`
	DialogID  string                `json:"dialogId"`
	MessageID string                `json:"messageId"`
	SenderID  string                `json:"senderId"`
}

// NewMessageCreated builds the event for a message posted to dialogID
func NewMessageCreated(dialogID string, m *messages.MessageView) MessageCreated {
	ev := MessageCreated{Message: m, DialogID: dialogID}
	if m != nil && m.Message != nil {
		ev.MessageID = m.ID
		ev.SenderID = m.UserID
	}
	return ev
}

type MessageDeleted struct {
	DialogID  string `json:"dialogId"`
	MessageID string `json:"messageId"`
}

// DialogLastMessageChanged carries the repaired pointer. LastMessage is nil
// when the dialog has no messages left.
type DialogLastMessageChanged struct {
	LastMessage *messages.MessageView `json:"lastMessage"`
	DialogID    string                `json:"dialogId"`
}

// MessagesRead is a cue to refresh unread state, not a count of what flipped
type MessagesRead struct {
	DialogID string `json:"dialogId"`
	ReaderID string `json:"readerId"`
}

// Typing is ephemeral and never persisted
type Typing struct {
	DialogID string `json:"dialogId"`
	UserID   string `json:"userId"`
	Typing   bool   `json:"typing"`
}

func (DialogCreated) Name() Name            { return NameDialogCreated }
func (MessageCreated) Name() Name           { return NameMessageCreated }
func (MessageDeleted) Name() Name           { return NameMessageDeleted }
func (DialogLastMessageChanged) Name() Name { return NameDialogLastMessageChanged }
func (MessagesRead) Name() Name             { return NameMessagesRead }
func (Typing) Name() Name                   { return NameTyping }

func (DialogCreated) event()            {}
func (MessageCreated) event()           {}
func (MessageDeleted) event()           {}
func (DialogLastMessageChanged) event() {}
func (MessagesRead) event()             {}
func (Typing) event()                   {}

// Frame is the envelope written to clients
type Frame struct {
	Payload Event `json:"payload"`
	Event   Name  `json:"event"`
}

// Encode renders ev as a wire frame
func Encode(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil event")
	}
	data, err := json.Marshal(Frame{Event: ev.Name(), Payload: ev})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", ev.Name(), err)
	}
	return data, nil
}

const (
	dialogTopicPrefix = "dialog:"
	userTopicPrefix   = "user:"
)

// DialogTopic is the room every participant viewing the dialog joins
func DialogTopic(dialogID string) string {
	return dialogTopicPrefix + dialogID
}

// UserTopic is the personal topic every session of a user joins on connect
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

// ParseDialogTopic extracts the dialog id from a dialog topic
func ParseDialogTopic(topic string) (string, bool) {
	id, ok := strings.CutPrefix(topic, dialogTopicPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// DialogAudience is the dialog room plus both participants' personal topics,
// so participants not viewing the dialog still refresh their lists
func DialogAudience(d *dialogs.Dialog) []string {
	return []string{
		DialogTopic(d.ID),
		UserTopic(d.AuthorID),
		UserTopic(d.PartnerID),
	}
}

// ParticipantTopics are the personal topics of both participants
func ParticipantTopics(d *dialogs.Dialog) []string {
	return []string{
		UserTopic(d.AuthorID),
		UserTopic(d.PartnerID),
	}
}
