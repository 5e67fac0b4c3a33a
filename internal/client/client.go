package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/hub"
	"github.com/devaloi/huddle/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Options tune a single connection.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	// MessagesPerSecond limits inbound frames; zero disables the limit.
	MessagesPerSecond int
	Burst             int
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

// Client is a WebSocket connection to the hub, identified by a session id.
type Client struct {
	hub     *hub.Hub
	conn    *websocket.Conn
	sid     string
	opts    Options
	limiter *rate.Limiter
	log     *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// New creates a Client with a fresh session id.
func New(h *hub.Hub, conn *websocket.Conn, opts Options) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Client{
		hub:  h,
		conn: conn,
		sid:  uuid.NewString(),
		opts: opts,
		log:  opts.Logger,
		send: make(chan []byte, opts.SendBuffer),
	}
	if opts.MessagesPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = opts.MessagesPerSecond
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), burst)
	}
	return c
}

// SessionID returns the client's session id.
func (c *Client) SessionID() string {
	return c.sid
}

// Send queues a frame for the WebSocket client. Frames are dropped when the
// buffer is full or the client is closed.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.opts.Metrics.Inc(metrics.SendsDropped)
		c.log.Warn("send buffer full, dropping frame", "sid", c.sid)
	}
}

// Serve registers the client with the hub and runs its pumps until the
// connection closes.
func (c *Client) Serve(ctx context.Context) error {
	if err := c.hub.Connect(c); err != nil {
		c.conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	go c.WritePump()
	c.ReadPump(ctx)
	return nil
}

// ReadPump reads frames from the WebSocket connection and dispatches them to the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c.sid)
		c.close()
		c.conn.Close()
	}()

	if c.opts.MaxMessageBytes > 0 {
		c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "sid", c.sid, "err", err)
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.opts.Metrics.Inc(metrics.RateLimited)
			c.log.Debug("rate limited, dropping frame", "sid", c.sid)
			continue
		}
		c.handleFrame(ctx, data)
	}
}

// WritePump writes frames from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte) {
	env, err := domain.DecodeEnvelope(data)
	if err != nil {
		c.opts.Metrics.Inc(metrics.InvalidFrames)
		c.sendError("invalid JSON")
		return
	}
	c.hub.Dispatch(ctx, c.sid, env.Event, env.Data)
}

func (c *Client) sendError(message string) {
	if data, err := domain.Encode(domain.EvError, domain.ErrorEvent{Message: message}); err == nil {
		c.Send(data)
	}
}

// close stops further sends and lets WritePump flush and exit.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
