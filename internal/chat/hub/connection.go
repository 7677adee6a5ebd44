package hub

import (
	"sync"
	"time"

	"recruitment_chat_service/internal/chat/domain"
)

// EventSender is the write side of one websocket session. The production
// implementation is the fiber websocket conn; tests install fakes.
type EventSender interface {
	WriteJSON(v interface{}) error
}

// Connection is one live websocket session, bound to exactly one room and
// role for its lifetime. Only the hub holds a reference to the sender.
type Connection struct {
	ClientID string
	Key      domain.RoomKey
	Role     domain.Role
	UserID   string
	UserName string

	lastActivityAt time.Time

	sender  EventSender
	writeMu sync.Mutex
}

// Send writes one event to the peer. Writes from concurrent handlers and
// timer callbacks are serialized per connection.
func (c *Connection) Send(ev domain.Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sender.WriteJSON(ev)
}

// LastActivityAt returns the time of the peer's most recent inbound frame.
func (c *Connection) LastActivityAt() time.Time {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.lastActivityAt
}

func (c *Connection) touch(now time.Time) {
	c.writeMu.Lock()
	c.lastActivityAt = now
	c.writeMu.Unlock()
}
