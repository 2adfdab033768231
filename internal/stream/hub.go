// Package stream pushes table replacements and notices to WebSocket clients.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"flight-state-table/internal/ingest"
	"flight-state-table/internal/metrics"
	"flight-state-table/internal/model"
	"flight-state-table/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 8
)

// Message types sent to clients.
const (
	TypeRows   = "rows"
	TypeNotice = "notice"
)

// Message is the envelope sent to clients.
type Message struct {
	Type    string         `json:"type"`
	Time    time.Time      `json:"time"`
	Headers []string       `json:"headers,omitempty"`
	Rows    []model.Row    `json:"rows"`
	Notice  *ingest.Notice `json:"notice,omitempty"`
}

// RowSource returns the rows a new client starts with.
type RowSource func() []model.Row

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans out table updates to connected clients. Clients that fall behind
// are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	current  RowSource
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. current supplies the initial rows for new clients.
func NewHub(current RowSource, log *logger.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		current: current,
		logger:  log,
		metrics: m,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams messages until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// ReplaceRows implements table.Sink.
func (h *Hub) ReplaceRows(rows []model.Row) {
	data, err := encode(rowsMessage(rows))
	if err != nil {
		h.logger.Error("Failed to encode rows message: %v", err)
		return
	}
	h.broadcast(data)
}

// Notify implements ingest.Notifier.
func (h *Hub) Notify(n ingest.Notice) {
	data, err := encode(Message{Type: TypeNotice, Time: time.Now(), Notice: &n})
	if err != nil {
		h.logger.Error("Failed to encode notice message: %v", err)
		return
	}
	h.broadcast(data)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.recordClients()
}

// register adds c and queues the current rows as its first message. Both
// happen under the lock so no broadcast can slip in between.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.current != nil {
		if data, err := encode(rowsMessage(h.current())); err == nil {
			c.send <- data
		}
	}
	h.clients[c] = struct{}{}
	h.recordClients()
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
		h.recordClients()
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Dropping slow WebSocket client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
	h.recordClients()
}

// recordClients must be called with h.mu held.
func (h *Hub) recordClients() {
	if h.metrics != nil {
		h.metrics.SetStreamClients(len(h.clients))
	}
}

// readPump discards client messages and tracks liveness.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func rowsMessage(rows []model.Row) Message {
	if rows == nil {
		rows = []model.Row{}
	}
	return Message{Type: TypeRows, Time: time.Now(), Headers: model.Headers(), Rows: rows}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
