package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thanhnp/pow-ledger/internal/models"
	"github.com/thanhnp/pow-ledger/internal/notifier"
)

const (
	writeWait        = 10 * time.Second
	subscriberBuffer = 64
	eventTypeMined   = "block_mined"
)

// Message represents a WebSocket message
type Message struct {
	Type string             `json:"type"`
	Data models.MiningEvent `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only stream, any origin
	},
}

// EventHandler streams mining events over WebSocket
type EventHandler struct {
	notifier *notifier.MiningNotifier
	logger   *slog.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(n *notifier.MiningNotifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: n,
		logger:   logger.With("component", "events"),
	}
}

// Stream upgrades the connection and forwards mining events until either
// side goes away
// GET /api/v1/events
func (h *EventHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.notifier.Subscribe(subscriberBuffer)
	defer cancel()

	// Drain client frames so close messages are processed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case e, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(Message{Type: eventTypeMined, Data: e}); err != nil {
				h.logger.Debug("failed to write event", "error", err)
				return
			}
		}
	}
}
