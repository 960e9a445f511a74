package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/services/broadcast"
)

// Hub tracks live websocket clients and the room groups they belong to.
// Sends never block: a client whose buffer is full is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	groups  map[model.RoomCode]map[model.ConnectionID]*Client
	closed  bool
	logger  *slog.Logger
}

// Ensure Hub implements broadcast.Transport
var _ broadcast.Transport = (*Hub)(nil)

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		groups:  make(map[model.RoomCode]map[model.ConnectionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Register adds a client. It returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("conn", string(c.id)),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client from the hub and all of its groups
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.remove(c)
	clientCount := len(h.clients)
	h.mu.Unlock()

	if removed {
		h.logger.Info("ws client unregistered",
			slog.String("conn", string(c.id)),
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int("total_clients", clientCount))
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(c *Client) bool {
	if current, ok := h.clients[c.id]; !ok || current != c {
		return false
	}
	delete(h.clients, c.id)
	for code := range c.groups {
		if members, ok := h.groups[code]; ok {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.groups, code)
			}
		}
	}
	close(c.send)
	return true
}

func (h *Hub) JoinGroup(code model.RoomCode, id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	members, ok := h.groups[code]
	if !ok {
		members = make(map[model.ConnectionID]*Client)
		h.groups[code] = members
	}
	members[id] = c
	c.groups[code] = struct{}{}
}

func (h *Hub) DropGroup(code model.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.groups[code] {
		delete(c.groups, code)
	}
	delete(h.groups, code)
}

func (h *Hub) SendToGroup(code model.RoomCode, frame []byte) {
	h.mu.RLock()
	var slow []*Client
	for _, c := range h.groups[code] {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.evict(slow)
}

func (h *Hub) SendTo(id model.ConnectionID, frame []byte) {
	h.mu.RLock()
	c, ok := h.clients[id]
	var slow []*Client
	if ok {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.evict(slow)
}

func (h *Hub) evict(slow []*Client) {
	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range slow {
		if h.remove(c) {
			h.logger.Warn("ws client disconnected - send buffer full",
				slog.String("conn", string(c.id)))
		}
	}
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	clientCount := len(h.clients)
	for _, c := range h.clients {
		h.remove(c)
	}
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of clients joined to a room
func (h *Hub) GroupSize(code model.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[code])
}
