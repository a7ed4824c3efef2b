// Package ws pushes a summary event to connected WebSocket clients whenever
// a new snapshot is published, so dashboards refresh without polling.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/predictarb/predictarb/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 1024

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 16
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for the REST API is enforced by middleware; the ws endpoint
		// carries no mutating operations.
		return true
	},
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// snapshotEvent is the JSON frame broadcast on each publish.
type snapshotEvent struct {
	Type                 string  `json:"type"` // always "snapshot"
	Version              uint64  `json:"version"`
	ComputedAt           string  `json:"computed_at"`
	TotalOpportunities   int     `json:"total_opportunities"`
	AvgSpread            float64 `json:"avg_spread"`
	TotalProfitPotential float64 `json:"total_profit_potential"`
	MarketsScanned       int     `json:"markets_scanned"`
	TopSpreadPercent     float64 `json:"top_spread_percent"`
	TopTitle             string  `json:"top_title,omitempty"`
}

// Hub manages connected WebSocket clients and fans one snapshot summary out
// to all of them per publish.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	logger     *slog.Logger

	last []byte // most recent event, replayed to new clients
}

// NewHub creates a WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
}

// Run consumes published snapshots and serves client lifecycle events until
// ctx is done. It should be called in a goroutine.
func (h *Hub) Run(ctx context.Context, snapshots <-chan domain.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			last := h.last
			h.mu.Unlock()
			if last != nil {
				c.send <- last
			}
			h.logger.Info("client connected", slog.Int("total_clients", h.clientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected", slog.Int("total_clients", h.clientCount()))

		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			h.broadcast(buildEvent(snap))
		}
	}
}

// broadcast sends one frame to every connected client. Slow clients drop the
// frame rather than stalling the hub.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping frame for slow client")
		}
	}
	h.mu.Unlock()
}

func buildEvent(snap domain.Snapshot) []byte {
	ev := snapshotEvent{
		Type:                 "snapshot",
		Version:              snap.Version,
		ComputedAt:           snap.ComputedAt.UTC().Format(time.RFC3339),
		TotalOpportunities:   snap.Stats.TotalOpportunities,
		AvgSpread:            snap.Stats.AvgSpread,
		TotalProfitPotential: snap.Stats.TotalProfitPotential,
		MarketsScanned:       snap.Stats.MarketsScanned,
	}
	// Opportunities arrive ranked by spread from the recompute cycle, but do
	// not rely on it: find the top explicitly.
	for _, o := range snap.Opportunities {
		if o.SpreadPercent > ev.TopSpreadPercent {
			ev.TopSpreadPercent = o.SpreadPercent
			ev.TopTitle = o.Title
		}
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return []byte(`{"type":"snapshot"}`)
	}
	return data
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection so pings/pongs and close frames are
// processed. Clients have nothing meaningful to send.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump sends queued frames and keepalive pings to the client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
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
