package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Subscribers only send small control frames
	maxMessageSize = 4 * 1024

	sendBufferSize = 32
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client is one viewer subscribed to one post
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	UserID string
	PostID string

	// Buffered channel of outbound messages
	send       chan []byte
	sendClosed bool

	ConnectedAt time.Time
	RemoteAddr  string

	rateLimiter *RateLimiter
	config      ClientConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.tokens += now.Sub(r.lastTime).Seconds() * r.refill
	r.lastTime = now
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// NewClient creates a subscription of userID to postID over conn
func NewClient(hub *Hub, conn *websocket.Conn, userID, postID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	config := hub.getClientConfig()

	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		PostID:      postID,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		rateLimiter: NewRateLimiter(config.MaxMessagesPerSecond, config.BurstSize),
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Send queues a message without blocking. A subscriber whose buffer is full
// is too slow to keep up and gets an error back.
func (c *Client) Send(message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return errClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// SendError sends an error frame, ignoring delivery failures
func (c *Client) SendError(code, message string) {
	_ = c.Send(NewErrorMessage(code, message))
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// ReadPump reads control frames until the peer goes away. There is no read
// deadline: a viewer may sit on a post without sending anything, and dead
// peers are caught by WritePump's pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.DebugWithFields("Subscriber disconnected",
					logger.WithUserID(c.UserID), logger.WithPostID(c.PostID))
			} else if c.ctx.Err() == nil {
				logger.DebugWithFields("Subscriber read error",
					logger.WithUserID(c.UserID), logger.WithPostID(c.PostID), zap.Error(err))
			}
			return
		}

		if !c.rateLimiter.Allow() {
			c.SendError("rate_limited", "Too many messages, please slow down")
			continue
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			c.SendError("invalid_json", "Failed to parse message")
			continue
		}
		c.handleMessage(&message)
	}
}

// WritePump writes queued messages and keepalive pings to the connection.
// Pong frames are consumed by ReadPump's Read, so a ping only succeeds while
// ReadPump is running.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				logger.DebugWithFields("Subscriber write error",
					logger.WithUserID(c.UserID), logger.WithPostID(c.PostID), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PingTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Warn("Ping failed for subscriber", logger.WithUserID(c.UserID), zap.Error(err))
				c.conn.CloseNow()
				return
			}
		}
	}
}

func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case MessageTypePing:
		_ = c.Send(&Message{Type: MessageTypePong, Timestamp: time.Now().UTC()})

	case MessageTypeRefresh:
		c.hub.Refresh(c)

	default:
		c.SendError("unknown_type", "Unsupported message type: "+message.Type)
	}
}

// Close cancels the client's context. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}
