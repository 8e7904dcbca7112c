package ws

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session is one connected client on the host side.
type Session struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Send pushes a message of kind to the client.
func (s *Session) Send(kind string, payload any) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(Envelope{Type: kind, Message: raw}); err != nil {
		return fmt.Errorf("send %s to %s: %w", kind, s.id, err)
	}
	return nil
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}

// Hub accepts client connections and relays frames in both directions.
type Hub struct {
	upgrader  websocket.Upgrader
	logger    *zap.Logger
	onConnect func(*Session)
	onInput   func(*Session, InputFrame)

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithCheckOrigin overrides the upgrader origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// OnConnect runs fn for each new session before its frames are read.
func OnConnect(fn func(*Session)) HubOption {
	return func(h *Hub) {
		h.onConnect = fn
	}
}

// OnInput runs fn for each input frame a client sends. Calls for one
// session are sequential.
func OnInput(fn func(*Session, InputFrame)) HubOption {
	return func(h *Hub) {
		h.onInput = fn
	}
}

// NewHub returns a hub ready to be mounted as an http.Handler.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.Named("ws.hub")
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	session := &Session{id: uuid.NewString(), conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		session.close()
		return
	}
	h.sessions[session.id] = session
	h.mu.Unlock()
	h.logger.Info("client connected", zap.String("session", session.id), zap.String("remote", r.RemoteAddr))

	defer func() {
		h.mu.Lock()
		delete(h.sessions, session.id)
		h.mu.Unlock()
		session.close()
		h.logger.Info("client disconnected", zap.String("session", session.id))
	}()

	if h.onConnect != nil {
		h.onConnect(session)
	}

	for {
		var frame InputFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !isNormalClose(err) {
				select {
				case <-session.done:
				default:
					h.logger.Debug("read ended", zap.String("session", session.id), zap.Error(err))
				}
			}
			return
		}
		if h.onInput != nil {
			h.onInput(session, frame)
		}
	}
}

// Broadcast sends a message to every connected session and returns the
// number of successful sends.
func (h *Hub) Broadcast(kind string, payload any) (int, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, session := range h.snapshot() {
		if err := session.Send(kind, raw); err != nil {
			h.logger.Warn("broadcast failed", zap.String("session", session.id), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// Sessions reports the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close disconnects every session and waits for their handlers to return.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, session := range h.snapshot() {
		session.close()
	}
	h.wg.Wait()
}

func (h *Hub) snapshot() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		out = append(out, session)
	}
	return out
}
