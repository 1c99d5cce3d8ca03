package realtime

import (
	"bufio"
	"net"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/util"
	"go.uber.org/zap"
)

// Handler upgrades post subscription requests. It expects the auth
// middleware to have run, which accepts the token as ?token= for browsers.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler creates a new subscription handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// SetOriginPatterns restricts which origins may open subscriptions. With no
// patterns every origin is accepted.
func (h *Handler) SetOriginPatterns(patterns []string) {
	h.originPatterns = patterns
}

// HandlePostSubscription serves GET /api/v1/ws/posts/:id
func (h *Handler) HandlePostSubscription(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	// Visibility is checked before the upgrade so callers get a plain 404.
	snapshot, err := h.hub.loader.Snapshot(c.Request.Context(), postID, userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	conn, err := websocket.Accept(newUpgradeWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: len(h.originPatterns) == 0,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Warn("WebSocket upgrade failed", logger.WithPostID(postID), zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, userID, postID)
	client.RemoteAddr = c.ClientIP()

	h.hub.Register(client)
	_ = client.Send(NewSnapshotMessage(snapshot))

	go client.WritePump()
	client.ReadPump()
}

// HandleStats serves hub counters
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(200, h.hub.GetStats())
}

// upgradeWriter lets the websocket handshake run under gin. gin only records
// WriteHeader calls and refuses to hijack once it has flushed a status, so the
// 101 goes straight to the net/http writer while the hijack goes through gin.
type upgradeWriter struct {
	http.ResponseWriter
	gin gin.ResponseWriter
}

func newUpgradeWriter(w gin.ResponseWriter) http.ResponseWriter {
	raw, ok := w.(interface{ Unwrap() http.ResponseWriter })
	if !ok {
		return w
	}
	return &upgradeWriter{ResponseWriter: raw.Unwrap(), gin: w}
}

func (w *upgradeWriter) WriteHeader(code int) {
	w.gin.WriteHeader(code)
	if code == http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(code)
	}
}

// Write covers rejected handshakes, which gin writes normally.
func (w *upgradeWriter) Write(data []byte) (int, error) {
	return w.gin.Write(data)
}

func (w *upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.gin.Hijack()
}
