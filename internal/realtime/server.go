package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/apperr"
	"Flock/internal/core/dialogs"
	"Flock/internal/core/events"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 30 * time.Second
	maxInboundBytes = 4096
)

// Inbound actions a client may send
const (
	ActionJoin   = "join"
	ActionLeave  = "leave"
	ActionTyping = "typing"
)

// DialogGuard authorizes dialog joins
type DialogGuard interface {
	RequireParticipant(ctx context.Context, dialogID, userID string) (*dialogs.Dialog, error)
}

// Options tune the websocket endpoint
type Options struct {
	AllowedOrigins  []string
	QueueSize       int
	TypingPerSecond float64
}

// Server upgrades authenticated requests to websocket sessions on the hub
type Server struct {
	hub      *Hub
	dialogs  DialogGuard
	logger   *slog.Logger
	upgrader websocket.Upgrader
	opts     Options
}

type inboundFrame struct {
	Typing   *bool  `json:"typing,omitempty"`
	Action   string `json:"action"`
	DialogID string `json:"dialogId"`
}

// NewServer creates the websocket endpoint
func NewServer(hub *Hub, dialogGuard DialogGuard, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hub:     hub,
		dialogs: dialogGuard,
		logger:  logger,
		opts:    opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// ServeHTTP handles GET /ws. The caller must already be authenticated.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Warn("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	session := NewSession(userID, s.opts.QueueSize, s.opts.TypingPerSecond)
	s.hub.Register(session)

	go s.writePump(conn, session)
	s.readPump(context.WithoutCancel(r.Context()), conn, session)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.opts.AllowedOrigins, origin)
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, session *Session) {
	defer func() {
		s.hub.Unregister(session)
		session.Close()
		if err := conn.Close(); err != nil {
			s.logger.Debug("websocket close", "session", session.ID(), "error", err)
		}
	}()

	conn.SetReadLimit(maxInboundBytes)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Warn("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info("websocket read error", "session", session.ID(), "error", err)
			}
			return
		}
		s.handleFrame(ctx, session, data)
	}
}

func (s *Server) writePump(conn *websocket.Conn, session *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-session.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				session.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("websocket write failed", "session", session.ID(), "error", err)
				session.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("failed to send ping", "session", session.ID(), "error", err)
				session.Close()
				return
			}
		case <-session.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// handleFrame applies one inbound client frame. Invalid frames are ignored.
func (s *Server) handleFrame(ctx context.Context, session *Session, data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		s.logger.Debug("ignoring malformed websocket frame", "session", session.ID(), "error", err)
		return
	}
	if in.DialogID == "" {
		return
	}
	topic := events.DialogTopic(in.DialogID)

	switch in.Action {
	case ActionJoin:
		if _, err := s.dialogs.RequireParticipant(ctx, in.DialogID, session.UserID()); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, apperr.ErrForbidden) || errors.Is(err, apperr.ErrNotFound) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "dialog join rejected",
				"session", session.ID(), "user", session.UserID(), "dialog", in.DialogID, "error", err)
			return
		}
		s.hub.Join(session, topic)

	case ActionLeave:
		s.hub.Leave(session, topic)

	case ActionTyping:
		if !s.hub.Joined(session, topic) || !session.allowTyping(time.Now()) {
			return
		}
		typing := true
		if in.Typing != nil {
			typing = *in.Typing
		}
		s.hub.BroadcastExcept(session, events.Typing{
			DialogID: in.DialogID,
			UserID:   session.UserID(),
			Typing:   typing,
		}, topic)
	}
}

// Shutdown closes every session so hijacked connections do not outlive the HTTP server
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}
