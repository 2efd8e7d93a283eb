package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mkoseki/techo/internal/events"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10 // must stay under wsPongWait
	wsMaxMessageSize = 64 * 1024
)

// wsInbound is a client-to-server frame: type is one of subscribe,
// unsubscribe or ping.
type wsInbound struct {
	Type     string `json:"type"`
	Resource string `json:"resource,omitempty"`
}

// WSHandler upgrades HTTP requests to WebSocket clients and pushes
// resource change events to them. Each client subscribes to one resource
// at a time; subscribing to "" or "*" receives everything.
type WSHandler struct {
	upgrader  websocket.Upgrader
	publisher events.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// wsClient is one connected browser tab.
type wsClient struct {
	id   string
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	stop sync.Once

	subMu    sync.Mutex
	resource string
	feed     <-chan events.Event
}

func NewWSHandler(pub events.Publisher, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin policy is not useful for a localhost personal
			// tool; the REST API is similarly open.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		publisher: pub,
		logger:    logger,
		clients:   make(map[*wsClient]struct{}),
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, 256),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket connected", "client", c.id)

	go h.readLoop(c)
	go c.writeLoop()
}

// ConnectionCount returns the number of connected clients.
func (h *WSHandler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *WSHandler) Close() {
	h.mu.Lock()
	all := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.Unlock()

	for _, c := range all {
		h.drop(c)
	}
}

// readLoop consumes client frames until the connection dies, then tears
// the client down.
func (h *WSHandler) readLoop(c *wsClient) {
	defer h.drop(c)

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("websocket read error", "client", c.id, "error", err)
			}
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendJSON(h.logger, map[string]any{"type": "error", "error": "invalid message format"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			h.subscribe(c, msg.Resource)
		case "unsubscribe":
			h.unsubscribe(c)
		case "ping":
			c.sendJSON(h.logger, map[string]any{"type": "pong"})
		default:
			c.sendJSON(h.logger, map[string]any{"type": "error", "error": "unknown message type: " + msg.Type})
		}
	}
}

// subscribe swaps the client onto a resource feed, replacing any previous
// subscription.
func (h *WSHandler) subscribe(c *wsClient, resource string) {
	if resource == "" {
		resource = events.GlobalResource
	}
	h.unsubscribe(c)

	c.subMu.Lock()
	c.resource = resource
	c.feed = h.publisher.Subscribe(resource)
	feed := c.feed
	c.subMu.Unlock()

	go c.forward(h.logger, feed)

	c.sendJSON(h.logger, map[string]any{"type": "subscribed", "resource": resource})
	h.logger.Debug("websocket subscribed", "client", c.id, "resource", resource)
}

func (h *WSHandler) unsubscribe(c *wsClient) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.feed != nil {
		h.publisher.Unsubscribe(c.resource, c.feed)
		c.resource = ""
		c.feed = nil
	}
}

// drop removes a client from the registry and closes it. Safe to call
// more than once.
func (h *WSHandler) drop(c *wsClient) {
	h.mu.Lock()
	_, known := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !known {
		return
	}

	h.unsubscribe(c)
	c.stop.Do(func() { close(c.done) })
	_ = c.conn.Close()
	h.logger.Debug("websocket closed", "client", c.id)
}

// writeLoop owns all writes to the connection: queued frames plus the
// keepalive pings the pong deadline depends on.
func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// forward streams publisher events to the client until the feed or the
// client closes. A stale goroutine from a replaced subscription exits when
// the publisher closes its old channel.
func (c *wsClient) forward(logger *slog.Logger, feed <-chan events.Event) {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			c.sendJSON(logger, map[string]any{
				"type":     "event",
				"event":    string(ev.Type),
				"resource": ev.Resource,
				"id":       ev.ID,
				"data":     ev.Data,
				"time":     ev.Time,
			})
		}
	}
}

// sendJSON queues a frame, dropping it if the client is too far behind.
func (c *wsClient) sendJSON(logger *slog.Logger, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Error("marshal websocket frame", "error", err)
		return
	}
	select {
	case c.out <- raw:
	default:
		logger.Warn("websocket send buffer full, dropping frame", "client", c.id)
	}
}
