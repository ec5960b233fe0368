// Package realtime fans committed domain events out to connected websocket
// sessions grouped by topic.
package realtime

import (
	"log/slog"
	"sync"

	"Flock/internal/core/events"
)

// Recorder observes fan-out. metrics.BusRecorder satisfies it.
type Recorder interface {
	Published(event string)
	Dropped(event string)
	SessionOpened()
	SessionClosed()
}

type nopRecorder struct{}

func (nopRecorder) Published(string) {}
func (nopRecorder) Dropped(string)   {}
func (nopRecorder) SessionOpened()   {}
func (nopRecorder) SessionClosed()   {}

// Hub tracks sessions and their topic memberships. Delivery is best effort:
// a session whose queue is full loses the event rather than blocking the
// publisher.
type Hub struct {
	recorder Recorder
	logger   *slog.Logger
	sessions map[*Session]struct{}
	topics   map[string]map[*Session]struct{}
	mu       sync.RWMutex
}

// NewHub creates an empty hub
func NewHub(recorder Recorder, logger *slog.Logger) *Hub {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		recorder: recorder,
		logger:   logger,
		sessions: make(map[*Session]struct{}),
		topics:   make(map[string]map[*Session]struct{}),
	}
}

// Register adds the session and subscribes it to its user's personal topic
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.joinLocked(s, events.UserTopic(s.UserID()))
	h.mu.Unlock()

	h.recorder.SessionOpened()
	h.logger.Debug("realtime session registered", "session", s.ID(), "user", s.UserID())
}

// Unregister removes the session from every topic. Safe to call twice.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	if ok {
		delete(h.sessions, s)
		for topic := range s.topics {
			h.leaveLocked(s, topic)
		}
	}
	h.mu.Unlock()

	if ok {
		h.recorder.SessionClosed()
		h.logger.Debug("realtime session unregistered", "session", s.ID(), "user", s.UserID())
	}
}

// Join subscribes a registered session to topic
func (h *Hub) Join(s *Session, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok {
		return
	}
	h.joinLocked(s, topic)
}

// Leave unsubscribes the session from topic. The personal topic cannot be left.
func (h *Hub) Leave(s *Session, topic string) {
	if topic == events.UserTopic(s.UserID()) {
		return
	}
	h.mu.Lock()
	h.leaveLocked(s, topic)
	h.mu.Unlock()
}

// Joined reports whether the session is subscribed to topic
func (h *Hub) Joined(s *Session, topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := s.topics[topic]
	return ok
}

// Publish delivers ev once to every session subscribed to any of topics
func (h *Hub) Publish(ev events.Event, topics ...string) {
	h.deliver(nil, ev, topics)
}

// BroadcastExcept delivers ev to the subscribers of topics other than origin.
// With no topics it reaches every registered session.
func (h *Hub) BroadcastExcept(origin *Session, ev events.Event, topics ...string) {
	h.deliver(origin, ev, topics)
}

// SessionCount is the number of registered sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) deliver(origin *Session, ev events.Event, topics []string) {
	frame, err := events.Encode(ev)
	if err != nil {
		h.logger.Error("failed to encode realtime event", "error", err)
		return
	}
	name := string(ev.Name())

	h.mu.RLock()
	targets := make(map[*Session]struct{})
	if len(topics) == 0 {
		for s := range h.sessions {
			targets[s] = struct{}{}
		}
	}
	for _, topic := range topics {
		for s := range h.topics[topic] {
			targets[s] = struct{}{}
		}
	}
	h.mu.RUnlock()

	delete(targets, origin)

	for s := range targets {
		if s.enqueue(frame) {
			h.recorder.Published(name)
			continue
		}
		h.recorder.Dropped(name)
		h.logger.Warn("realtime event dropped",
			"event", name, "session", s.ID(), "user", s.UserID())
	}
}

func (h *Hub) joinLocked(s *Session, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Session]struct{})
		h.topics[topic] = members
	}
	members[s] = struct{}{}
	s.topics[topic] = struct{}{}
}

func (h *Hub) leaveLocked(s *Session, topic string) {
	delete(s.topics, topic)
	members, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
}

// CloseAll closes every registered session. Their pumps unregister them.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.Close()
	}
}
