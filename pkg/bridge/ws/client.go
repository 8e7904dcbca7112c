package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/bridge"
)

const defaultHandshakeTimeout = 10 * time.Second

// Client is a bridge.Bridge backed by a websocket connection. Frames are
// read on a background goroutine and dispatched serially by Run.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]bridge.Handler
	after    func(bridge.Message)

	writeMu sync.Mutex

	inbox chan bridge.Message
	tasks chan func()
	done  chan struct{}

	readErr   error
	closeOnce sync.Once
}

var _ bridge.Bridge = (*Client)(nil)

// ClientOption customises a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	logger           *zap.Logger
	handshakeTimeout time.Duration
	after            func(bridge.Message)
	buffer           int
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithHandshakeTimeout overrides the dial handshake timeout.
func WithHandshakeTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.handshakeTimeout = timeout
		}
	}
}

// WithAfterDispatch runs fn on the Run loop after each message handler.
func WithAfterDispatch(fn func(bridge.Message)) ClientOption {
	return func(c *clientConfig) {
		c.after = fn
	}
}

// Dial connects to a hub at url.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{handshakeTimeout: defaultHandshakeTimeout, buffer: 16}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Client{
		conn:     conn,
		logger:   cfg.logger.Named("ws.client"),
		handlers: make(map[string]bridge.Handler),
		after:    cfg.after,
		inbox:    make(chan bridge.Message, cfg.buffer),
		tasks:    make(chan func(), cfg.buffer),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) HandleMessage(kind string, handler bridge.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handler == nil {
		delete(c.handlers, kind)
		return
	}
	c.handlers[kind] = handler
}

func (c *Client) SetInputValue(name string, value any) error {
	raw, err := encodePayload(value)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(InputFrame{Name: name, Value: raw}); err != nil {
		return fmt.Errorf("send input %q: %w", name, err)
	}
	return nil
}

// Post schedules fn on the Run loop.
func (c *Client) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.tasks <- fn:
		return nil
	}
}

// Run dispatches messages until ctx ends or the connection closes. A
// normal close returns nil.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.tasks:
			fn()
		case msg, ok := <-c.inbox:
			if !ok {
				return c.readErr
			}
			c.dispatch(msg)
		}
	}
}

func (c *Client) dispatch(msg bridge.Message) {
	c.mu.RLock()
	handler, ok := c.handlers[msg.Kind]
	after := c.after
	c.mu.RUnlock()

	if !ok {
		c.logger.Warn("no handler for message", zap.String("kind", msg.Kind))
		return
	}
	handler(msg)
	if after != nil {
		after(msg)
	}
}

func (c *Client) readLoop() {
	defer close(c.inbox)
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if !isNormalClose(err) && !c.closed() {
				c.readErr = fmt.Errorf("websocket read: %w", err)
				c.logger.Error("read failed", zap.Error(err))
			}
			return
		}
		msg := bridge.Message{Kind: env.Type, Payload: env.Message}
		select {
		case c.inbox <- msg:
		case <-c.done:
			return
		}
	}
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		werr := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		if cerr := c.conn.Close(); cerr != nil && werr == nil {
			werr = cerr
		}
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			err = werr
		}
	})
	return err
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
