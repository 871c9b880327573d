// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"

	"github.com/fasthttp/websocket"
)

const (
	sendBuffer   = 256
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Client represents a WebSocket client
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
	// pong is owned by the connection, never closed by the hub.
	pong chan struct{}
	// since is the event sequence covered by the client's snapshot.
	since uint64
}

type outbound struct {
	seq  uint64
	data []byte
}

// Hub fans pipeline events out to every connected renderer.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	snapshot func() models.Snapshot
	logger   *slog.Logger

	done chan struct{}
	mu   sync.RWMutex
}

// NewHub creates a new Hub. snapshot supplies the state sent to newly
// connected clients.
func NewHub(snapshot func() models.Snapshot, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, sendBuffer),
		snapshot:   snapshot,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			// The snapshot is taken here so that no event can fall between
			// it and the client joining the broadcast set.
			if h.snapshot != nil {
				state := h.snapshot()
				data, err := h.snapshotMessage(state)
				if err != nil {
					h.logger.Error("failed to marshal snapshot", "error", err)
				} else {
					client.since = state.Seq
					client.Send <- data
				}
			}
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", "clients", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if msg.seq <= client.since {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Observe is a pipeline.Listener. It must not block the pipeline, so a
// full broadcast buffer drops the event.
func (h *Hub) Observe(ev pipeline.Event) {
	data, err := json.Marshal(newEventMessage(ev))
	if err != nil {
		h.logger.Error("failed to marshal pipeline event", "type", ev.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{seq: ev.Seq, data: data}:
	default:
		h.logger.Warn("websocket broadcast buffer full, dropping event", "type", ev.Type)
	}
}

func (h *Hub) snapshotMessage(state models.Snapshot) ([]byte, error) {
	return json.Marshal(SnapshotMessage{
		Type:   MessageTypeSnapshot,
		State:  state,
		Groups: models.GroupByCategory(state.Predictions),
	})
}

// HandleConnection serves one upgraded connection until it closes.
func (h *Hub) HandleConnection(c *websocket.Conn) {
	client := &Client{
		Conn: c,
		Send: make(chan []byte, sendBuffer),
		pong: make(chan struct{}, 1),
	}

	select {
	case h.register <- client:
	case <-h.done:
		c.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		defer c.Close()

		for {
			select {
			case message, ok := <-client.Send:
				_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-client.pong:
				data, _ := json.Marshal(Message{Type: MessageTypePong})
				_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}

			case <-ticker.C:
				_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			select {
			case client.pong <- struct{}{}:
			default:
			}
		}
	}
}
