// Package realtime streams live post snapshots to websocket subscribers.
// Uses github.com/coder/websocket.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"go.uber.org/zap"
)

const (
	changeBufferSize = 1024
	snapshotTimeout  = 5 * time.Second
)

// SnapshotLoader loads a post as a given viewer sees it. A NOT_FOUND
// APIError means the post is gone or hidden from that viewer.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, postID, viewerID string) (*models.Post, error)
}

type postEvent struct {
	postID  string
	deleted bool
}

// Hub tracks subscribers per post and pushes a fresh snapshot to each of them
// after every committed change to that post.
type Hub struct {
	// Subscribers by post ID
	topics map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	changes    chan postEvent

	loader SnapshotLoader

	mu    sync.RWMutex
	stats *Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	clientConfig ClientConfig
}

// Stats tracks subscription counters
type Stats struct {
	TotalSubscriptions  atomic.Int64
	ActiveSubscriptions atomic.Int64
	SnapshotsSent       atomic.Int64
	Errors              atomic.Int64
	ChangesDropped      atomic.Int64
}

// ClientConfig bounds what each subscriber may send and how its liveness is
// checked. A subscriber that misses a pong for PingTimeout is dropped; an idle
// one that keeps answering pings stays subscribed indefinitely.
type ClientConfig struct {
	MaxMessagesPerSecond int
	BurstSize            int
	PingPeriod           time.Duration
	PingTimeout          time.Duration
}

// DefaultClientConfig returns the production defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxMessagesPerSecond: 5,
		BurstSize:            10,
		PingPeriod:           54 * time.Second,
		PingTimeout:          10 * time.Second,
	}
}

// NewHub creates a new Hub instance
func NewHub(loader SnapshotLoader) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		topics:       make(map[string]map[*Client]struct{}),
		register:     make(chan *Client, 256),
		unregister:   make(chan *Client, 256),
		changes:      make(chan postEvent, changeBufferSize),
		loader:       loader,
		stats:        &Stats{},
		ctx:          ctx,
		cancel:       cancel,
		clientConfig: DefaultClientConfig(),
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	logger.Log.Info("Realtime hub starting")

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.changes:
			subscribers := h.subscribers(event.postID)
			if len(subscribers) == 0 {
				continue
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.publish(event, subscribers)
			}()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[client.PostID] == nil {
		h.topics[client.PostID] = make(map[*Client]struct{})
	}
	h.topics[client.PostID][client] = struct{}{}

	h.stats.TotalSubscriptions.Add(1)
	h.stats.ActiveSubscriptions.Add(1)
	metrics.Get().RealtimeSubscribers.Inc()

	logger.DebugWithFields("Subscriber connected",
		logger.WithUserID(client.UserID),
		logger.WithPostID(client.PostID),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.topics[client.PostID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.PostID)
	}

	// Closing send lets WritePump flush what is queued and close the socket.
	client.closeSend()

	h.stats.ActiveSubscriptions.Add(-1)
	metrics.Get().RealtimeSubscribers.Dec()
}

func (h *Hub) subscribers(postID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.topics[postID]))
	for c := range h.topics[postID] {
		clients = append(clients, c)
	}
	return clients
}

// publish sends each subscriber either its own snapshot (flags like is_liked
// are per viewer) or the deletion notice.
func (h *Hub) publish(event postEvent, subscribers []*Client) {
	if event.deleted {
		for _, client := range subscribers {
			h.deliver(client, NewPostDeletedMessage(event.postID))
			h.Unregister(client)
		}
		return
	}

	for _, client := range subscribers {
		ctx, cancel := context.WithTimeout(h.ctx, snapshotTimeout)
		post, err := h.loader.Snapshot(ctx, event.postID, client.UserID)
		cancel()

		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			h.deliver(client, NewPostDeletedMessage(event.postID))
			h.Unregister(client)
			continue
		}
		if err != nil {
			h.stats.Errors.Add(1)
			logger.WarnWithFields("Failed to load post snapshot", err,
				logger.WithPostID(event.postID),
				logger.WithUserID(client.UserID),
			)
			continue
		}
		if h.deliver(client, NewSnapshotMessage(post)) {
			h.stats.SnapshotsSent.Add(1)
		}
	}
}

func (h *Hub) deliver(client *Client, message *Message) bool {
	if err := client.Send(message); err != nil {
		h.stats.Errors.Add(1)
		logger.DebugWithFields("Dropping subscriber",
			logger.WithUserID(client.UserID),
			logger.WithPostID(client.PostID),
			zap.Error(err),
		)
		h.Unregister(client)
		return false
	}
	return true
}

// PostChanged queues a snapshot push for the post's subscribers. It never
// blocks the caller; if the queue is full the change is dropped and counted.
func (h *Hub) PostChanged(postID string) {
	h.enqueue(postEvent{postID: postID})
}

// PostDeleted tells the post's subscribers it is gone and ends their subscriptions.
func (h *Hub) PostDeleted(postID string) {
	h.enqueue(postEvent{postID: postID, deleted: true})
}

func (h *Hub) enqueue(event postEvent) {
	select {
	case h.changes <- event:
	case <-h.ctx.Done():
	default:
		h.stats.ChangesDropped.Add(1)
		logger.Warn("Realtime change queue full, dropping update", logger.WithPostID(event.postID))
	}
}

// Refresh re-sends the current snapshot to one subscriber.
func (h *Hub) Refresh(client *Client) {
	h.publish(postEvent{postID: client.PostID}, []*Client{client})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// SubscriberCount returns the number of live subscriptions to postID
func (h *Hub) SubscriberCount(postID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[postID])
}

// GetStats returns current hub counters
func (h *Hub) GetStats() StatsSnapshot {
	return StatsSnapshot{
		TotalSubscriptions:  h.stats.TotalSubscriptions.Load(),
		ActiveSubscriptions: h.stats.ActiveSubscriptions.Load(),
		SnapshotsSent:       h.stats.SnapshotsSent.Load(),
		Errors:              h.stats.Errors.Load(),
		ChangesDropped:      h.stats.ChangesDropped.Load(),
	}
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	TotalSubscriptions  int64 `json:"total_subscriptions"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	SnapshotsSent       int64 `json:"snapshots_sent"`
	Errors              int64 `json:"errors"`
	ChangesDropped      int64 `json:"changes_dropped"`
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("subscriptions=%d/%d snapshots=%d errors=%d dropped=%d",
		s.ActiveSubscriptions, s.TotalSubscriptions, s.SnapshotsSent, s.Errors, s.ChangesDropped)
}

// Shutdown stops the hub and waits for in-flight publishes.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Realtime hub shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// shutdown closes all subscriptions
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	notice := &Message{
		Type:      MessageTypeSystem,
		Message:   "server_shutdown",
		Timestamp: time.Now().UTC(),
	}

	closed := 0
	for _, clients := range h.topics {
		for client := range clients {
			_ = client.Send(notice)
			client.closeSend()
			closed++
		}
	}
	h.topics = make(map[string]map[*Client]struct{})
	metrics.Get().RealtimeSubscribers.Sub(float64(closed))

	logger.Log.Info("Realtime hub closed subscriptions", zap.Int("count", closed))
}

// SetClientConfig applies to subscribers registered after the call. Zero
// fields keep their defaults.
func (h *Hub) SetClientConfig(config ClientConfig) {
	defaults := DefaultClientConfig()
	if config.MaxMessagesPerSecond <= 0 {
		config.MaxMessagesPerSecond = defaults.MaxMessagesPerSecond
	}
	if config.BurstSize <= 0 {
		config.BurstSize = defaults.BurstSize
	}
	if config.PingPeriod <= 0 {
		config.PingPeriod = defaults.PingPeriod
	}
	if config.PingTimeout <= 0 {
		config.PingTimeout = defaults.PingTimeout
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clientConfig = config
}

func (h *Hub) getClientConfig() ClientConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientConfig
}
