package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultQueueSize       = 64
	DefaultTypingPerSecond = 2.0
)

// Session is one connected client. Frames queued for it are written in
// order by its write pump.
type Session struct {
	typing    *rate.Limiter
	send      chan []byte
	done      chan struct{}
	topics    map[string]struct{} // guarded by Hub.mu
	id        string
	userID    string
	closeOnce sync.Once
}

// NewSession creates a session for userID with a bounded outbound queue.
// typingPerSecond limits how often the client may emit typing signals.
func NewSession(userID string, queueSize int, typingPerSecond float64) *Session {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if typingPerSecond <= 0 {
		typingPerSecond = DefaultTypingPerSecond
	}
	return &Session{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		topics: make(map[string]struct{}),
		typing: rate.NewLimiter(rate.Limit(typingPerSecond), 1),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// Frames exposes the outbound queue
func (s *Session) Frames() <-chan []byte { return s.send }

// Done is closed once the session is closed
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session. Queued frames are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// enqueue never blocks; it reports false when the frame was not queued
func (s *Session) enqueue(frame []byte) bool {
	if s.closed() {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) allowTyping(now time.Time) bool {
	return s.typing.AllowN(now, 1)
}
