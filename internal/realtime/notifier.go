package realtime

import (
	"Flock/internal/core/dialogs"
	"Flock/internal/core/events"
	"Flock/internal/core/messages"
	"Flock/internal/core/receipts"
)

// Notifier routes service notifications onto hub topics
type Notifier struct {
	hub *Hub
}

var (
	_ dialogs.Notifier  = (*Notifier)(nil)
	_ messages.Notifier = (*Notifier)(nil)
	_ receipts.Notifier = (*Notifier)(nil)
)

// NewNotifier creates a notifier publishing to hub
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// DialogCreated reaches both participants; nobody has joined the dialog topic yet
func (n *Notifier) DialogCreated(d *dialogs.Dialog) {
	n.hub.Publish(events.NewDialogCreated(d), events.ParticipantTopics(d)...)
}

func (n *Notifier) MessageCreated(d *dialogs.Dialog, message *messages.MessageView) {
	n.hub.Publish(events.NewMessageCreated(d.ID, message), events.DialogAudience(d)...)
}

func (n *Notifier) MessageDeleted(d *dialogs.Dialog, messageID string) {
	n.hub.Publish(events.MessageDeleted{DialogID: d.ID, MessageID: messageID}, events.DialogAudience(d)...)
}

func (n *Notifier) LastMessageChanged(d *dialogs.Dialog, last *messages.MessageView) {
	n.hub.Publish(events.DialogLastMessageChanged{DialogID: d.ID, LastMessage: last}, events.DialogAudience(d)...)
}

func (n *Notifier) MessagesRead(d *dialogs.Dialog, readerID string) {
	n.hub.Publish(events.MessagesRead{DialogID: d.ID, ReaderID: readerID}, events.DialogAudience(d)...)
}
