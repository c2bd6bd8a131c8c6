package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler receives the raw payload of a pushed event. Handlers run on the
// connection's reader goroutine and must not block.
type Handler func(payload json.RawMessage)

// Channel is the command/event boundary to the simulation engine.
// This interface is implemented by *Client and can be faked in tests.
type Channel interface {
	Invoke(ctx context.Context, command string, args any) (json.RawMessage, error)
	Subscribe(event string, h Handler) (unsubscribe func())
}

// Ensure Client implements Channel at compile time.
var _ Channel = (*Client)(nil)

// Client talks to the engine over a single websocket connection. Requests are
// written in call order by one writer goroutine and correlated with their
// responses by id.
type Client struct {
	conn *websocket.Conn
	log  *log.Logger

	out    chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending map[string]chan envelope
	subs    map[string]map[uint64]Handler
	nextSub uint64
	err     error
}

const (
	defaultEngineURL = "ws://127.0.0.1:7878/engine"
	defaultPath      = "/engine"
	requestTimeout   = 5 * time.Second
	writeWait        = 5 * time.Second
	outboxSize       = 64
	maxFrameBytes    = 4 << 20
)

// Dial connects to the engine at rawURL (host:port or ws:// URL).
func Dial(ctx context.Context, rawURL string, logger *log.Logger) (*Client, error) {
	target, err := parseEngineURL(rawURL)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial engine %s: %w", target, err)
	}
	return NewClient(conn, logger), nil
}

// NewClient wraps an established connection and starts its reader and writer.
func NewClient(conn *websocket.Conn, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		conn:    conn,
		log:     logger,
		out:     make(chan []byte, outboxSize),
		closed:  make(chan struct{}),
		pending: make(map[string]chan envelope),
		subs:    make(map[string]map[uint64]Handler),
	}
	conn.SetReadLimit(maxFrameBytes)
	go c.writeLoop()
	go c.readLoop()
	return c
}

// Invoke sends command with args and waits for the engine's reply. Without a
// deadline on ctx a default request timeout applies.
func (c *Client) Invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	req := envelope{Type: frameInvoke, ID: uuid.NewString(), Command: command}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", command, err)
		}
		req.Args = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", command, err)
	}

	reply := make(chan envelope, 1)
	c.mu.Lock()
	c.pending[req.ID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	select {
	case c.out <- data:
	case <-ctx.Done():
		return nil, fmt.Errorf("send %s: %w", command, ctx.Err())
	case <-c.closed:
		return nil, fmt.Errorf("send %s: %w", command, c.closedErr())
	}

	select {
	case resp := <-reply:
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %w", command, resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("await %s: %w", command, ctx.Err())
	case <-c.closed:
		return nil, fmt.Errorf("await %s: %w", command, c.closedErr())
	}
}

// Subscribe registers h for event and returns a function that removes it.
func (c *Client) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	if c.subs[event] == nil {
		c.subs[event] = make(map[uint64]Handler)
	}
	c.subs[event][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[event], id)
			c.mu.Unlock()
		})
	}
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// Err reports why the connection closed, if it did so on its own.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a close frame and tears the connection down. Pending requests
// fail with ErrClosed.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *Client) closedErr() error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return ErrClosed
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.shutdown(fmt.Errorf("write: %w", err))
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("read: %w", err))
			return
		}
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.log.Printf("engine: dropping malformed frame: %v", err)
			continue
		}
		switch env.Type {
		case frameResult:
			c.deliver(env)
		case frameEvent:
			c.dispatch(env)
		default:
			c.log.Printf("engine: dropping frame with type %q", env.Type)
		}
	}
}

func (c *Client) deliver(env envelope) {
	c.mu.Lock()
	reply, ok := c.pending[env.ID]
	delete(c.pending, env.ID)
	c.mu.Unlock()
	if !ok {
		// Caller already gave up on this request.
		return
	}
	reply <- env
}

func (c *Client) dispatch(env envelope) {
	c.mu.Lock()
	subs := c.subs[env.Event]
	handlers := make([]Handler, 0, len(subs))
	for _, id := range slices.Sorted(maps.Keys(subs)) {
		handlers = append(handlers, subs[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(env.Payload)
	}
}

func parseEngineURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultEngineURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "ws://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse engine url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("parse engine url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse engine url %q: missing host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultPath
	}
	u.Fragment = ""
	return u, nil
}
