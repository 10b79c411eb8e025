package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/gorilla/websocket"

	"github.com/frostneek/FrostChat/pkg/logging"
)

// WebSocketOptions tune the connection
type WebSocketOptions struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Header           http.Header
	Buffer           int // size of the Events channel
}

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultBuffer           = 64
)

// WebSocketChannel carries JSON envelopes over a single websocket. It does
// not reconnect: a dropped connection is reported as a disconnect event.
type WebSocketChannel struct {
	url    string
	opts   WebSocketOptions
	logger golog.Logger

	events chan Event
	done   chan struct{}

	writeMu sync.Mutex
	conn    *websocket.Conn

	presenceMu sync.RWMutex
	online     []string

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocketChannel creates an unconnected channel for url
func NewWebSocketChannel(url string, opts WebSocketOptions, logger golog.Logger) *WebSocketChannel {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	return &WebSocketChannel{
		url:    url,
		opts:   opts,
		logger: logging.Or(logger).With("component", "transport"),
		events: make(chan Event, opts.Buffer),
		done:   make(chan struct{}),
	}
}

// Events delivers incoming events in arrival order
func (c *WebSocketChannel) Events() <-chan Event {
	return c.events
}

// Connect dials the server and starts the reader. On failure a
// connect_error event is delivered and the error returned.
func (c *WebSocketChannel) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		err = fmt.Errorf("connecting to %s: %w", c.url, err)
		c.logger.Error("Connection failed", "url", c.url, "error", err)
		c.deliver(Event{Name: EventConnectError, Err: err})
		return err
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	c.logger.Info("Connected", "url", c.url)
	c.deliver(Event{Name: EventConnect})

	c.wg.Add(1)
	go c.readLoop(conn)
	return nil
}

func (c *WebSocketChannel) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("Connection lost", "error", err)
			c.setOnline(nil)
			c.deliver(Event{Name: EventDisconnect, Err: err})
			return
		}

		ev, err := decode(frame)
		if err != nil {
			c.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}
		if ev.Name == EventPresence {
			var p Presence
			if err := ev.Decode(&p); err != nil {
				c.logger.Warn("Dropping malformed presence", "error", err)
				continue
			}
			c.setOnline(p.Online)
		}
		c.deliver(ev)
	}
}

func (c *WebSocketChannel) deliver(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Emit sends one envelope
func (c *WebSocketChannel) Emit(event string, payload any) error {
	frame, err := encode(event, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrClosed
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return fmt.Errorf("emitting %s: %w", event, err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("emitting %s: %w", event, err)
	}
	c.logger.Debug("Emitted event", "event", event)
	return nil
}

// Online returns the last presence list from the server
func (c *WebSocketChannel) Online() []string {
	c.presenceMu.RLock()
	defer c.presenceMu.RUnlock()
	return append([]string(nil), c.online...)
}

// IsOnline reports whether username was in the last presence list
func (c *WebSocketChannel) IsOnline(username string) bool {
	c.presenceMu.RLock()
	defer c.presenceMu.RUnlock()
	for _, name := range c.online {
		if name == username {
			return true
		}
	}
	return false
}

func (c *WebSocketChannel) setOnline(names []string) {
	c.presenceMu.Lock()
	c.online = append([]string(nil), names...)
	c.presenceMu.Unlock()
}

// Close sends a close frame, closes the connection and waits for the reader
func (c *WebSocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		conn := c.conn
		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout))
			err = conn.Close()
		}
		c.writeMu.Unlock()

		c.wg.Wait()
		c.logger.Debug("Channel closed")
	})
	return err
}
