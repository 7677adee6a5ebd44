package hub

import (
	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Broadcast sends the event to every room member except excludeClientID
// (empty string excludes nobody). A send failure to one peer is logged and
// does not abort delivery to the rest.
func (h *Hub) Broadcast(key domain.RoomKey, ev domain.Event, excludeClientID string) {
	h.mu.RLock()
	members := h.rooms[key.String()]
	targets := make([]*Connection, 0, len(members))
	for id := range members {
		if id == excludeClientID {
			continue
		}
		if conn, ok := h.conns[id]; ok {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.Send(ev); err != nil {
			logger.Log.Warn("broadcast send failed",
				zap.String("clientID", conn.ClientID),
				zap.String("room", key.String()),
				zap.String("event", ev.Kind()),
				zap.Error(err),
			)
		}
	}
}

// SendTo delivers one event to a single client. A missing client id means
// the peer is gone; callers treat it as a silent drop.
func (h *Hub) SendTo(clientID string, ev domain.Event) {
	h.mu.RLock()
	conn, ok := h.conns[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := conn.Send(ev); err != nil {
		logger.Log.Warn("send failed",
			zap.String("clientID", clientID),
			zap.String("event", ev.Kind()),
			zap.Error(err),
		)
	}
}

// RoomOnlineStatus reports, for every known room, whether at least one member
// holds the counterpart role for that room kind (the applicant side, for
// applicant rooms). Feeds the recruiter dashboard live dot; not used for
// protocol correctness.
func (h *Hub) RoomOnlineStatus() map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := make(map[string]bool, len(h.rooms))
	for room, members := range h.rooms {
		online := false
		for id := range members {
			conn, ok := h.conns[id]
			if !ok {
				continue
			}
			if conn.Role == conn.Key.Kind.CounterpartRole() {
				online = true
				break
			}
		}
		status[room] = online
	}
	return status
}
