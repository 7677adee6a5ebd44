// Package hub owns the live connection and room registries of the chat
// service. All shared mutable state sits behind the Hub type; one Hub is
// constructed per process and passed by reference to every connection
// handler.
package hub

import (
	"sync"
	"time"

	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub is the connection registry plus the room membership index. Rooms are a
// live-membership index only: an entry exists iff it has at least one member.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	rooms map[string]map[string]struct{}
}

// NewHub create an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Connection),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Register allocates an opaque client id and stores the connection tuple.
// It never blocks.
func (h *Hub) Register(sender EventSender, key domain.RoomKey, role domain.Role, userID, userName string) string {
	conn := &Connection{
		ClientID:       uuid.New().String(),
		Key:            key,
		Role:           role,
		UserID:         userID,
		UserName:       userName,
		lastActivityAt: time.Now(),
		sender:         sender,
	}

	h.mu.Lock()
	h.conns[conn.ClientID] = conn
	total := len(h.conns)
	h.mu.Unlock()

	logger.Log.Info("client registered",
		zap.String("clientID", conn.ClientID),
		zap.String("room", key.String()),
		zap.String("role", string(role)),
		zap.Int("connections", total),
	)
	return conn.ClientID
}

// Unregister removes the connection and its room membership. Unregistering
// twice is a no-op.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	conn, ok := h.conns[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, clientID)
	h.leaveLocked(conn.Key.String(), clientID)
	total := len(h.conns)
	h.mu.Unlock()

	logger.Log.Info("client unregistered",
		zap.String("clientID", clientID),
		zap.String("room", conn.Key.String()),
		zap.Int("connections", total),
	)
}

// Touch updates the connection's last-activity timestamp. Called on every
// inbound frame; a missing client id is a silent drop.
func (h *Hub) Touch(clientID string) {
	h.mu.RLock()
	conn, ok := h.conns[clientID]
	h.mu.RUnlock()
	if ok {
		conn.touch(time.Now())
	}
}

// Get returns the connection for the client id.
func (h *Hub) Get(clientID string) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[clientID]
	return conn, ok
}

// Join adds the client to the room's member set, creating the set if absent.
func (h *Hub) Join(key domain.RoomKey, clientID string) {
	room := key.String()
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[clientID] = struct{}{}
	h.mu.Unlock()
}

// Leave removes the client from the room; an emptied room is deleted.
func (h *Hub) Leave(key domain.RoomKey, clientID string) {
	h.mu.Lock()
	h.leaveLocked(key.String(), clientID)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(room, clientID string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Members returns a snapshot of the room's member client ids.
func (h *Hub) Members(key domain.RoomKey) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.rooms[key.String()]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
