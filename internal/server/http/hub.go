package http

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"satchel/internal/composer"
	"satchel/internal/observability"
)

// wsEvent is the envelope pushed to websocket clients. Exactly one of Items
// and Notification is set per event.
type wsEvent struct {
	Type         string                    `json:"type"` // "snapshot" | "notification"
	Items        []composer.AttachmentItem `json:"items,omitempty"`
	Notification *composer.Notification    `json:"notification,omitempty"`
}

// Hub fans selection snapshots and notifications out to websocket clients.
// It implements composer.Notifier, so the composer's user-visible messages
// reach the UI through the same stream as the reactive collection.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *observability.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool

	unsubscribe func()
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsEvent
}

const clientSendBuffer = 32

// NewHub starts watching the store; every mutation becomes a snapshot event.
func NewHub(store *composer.SelectionStore, logger *observability.Logger) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.With("component", "Hub"),
		clients: make(map[*wsClient]struct{}),
	}

	snapshots, cancel := store.Subscribe()
	h.unsubscribe = cancel
	go func() {
		for snap := range snapshots {
			h.broadcast(wsEvent{Type: "snapshot", Items: snap})
		}
	}()
	return h
}

// Notify implements composer.Notifier. The log level tracks the
// notification's severity.
func (h *Hub) Notify(n composer.Notification) {
	switch n.Severity {
	case composer.SeverityError:
		h.logger.Error("notification", "code", n.Code, "message", n.Message)
	case composer.SeverityWarning:
		h.logger.Warn("notification", "code", n.Code, "message", n.Message)
	default:
		h.logger.Info("notification", "code", n.Code, "message", n.Message)
	}
	h.broadcast(wsEvent{Type: "notification", Notification: &n})
}

func (h *Hub) broadcast(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- ev:
		default:
			// Slow consumer: drop it rather than stall the composer.
			h.dropLocked(client)
		}
	}
}

func (h *Hub) serveWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan wsEvent, clientSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *Hub) writeLoop(client *wsClient) {
	for ev := range client.send {
		if err := client.conn.WriteJSON(ev); err != nil {
			h.drop(client)
			return
		}
	}
	_ = client.conn.Close()
}

// readLoop drains the connection so pings and close frames are processed;
// clients have nothing meaningful to say upstream.
func (h *Hub) readLoop(client *wsClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			h.drop(client)
			return
		}
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *wsClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

// Close disconnects every client and stops watching the store.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		h.dropLocked(client)
	}
}
