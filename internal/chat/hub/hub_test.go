package hub

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

type recordingSender struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *recordingSender) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if ev, ok := v.(domain.Event); ok {
		s.events = append(s.events, ev)
	}
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func mustKey(t *testing.T, raw string) domain.RoomKey {
	t.Helper()
	key, err := domain.ParseRoomKey(raw)
	require.NoError(t, err)
	return key
}

func TestRegisterAndUnregister(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	id := h.Register(&recordingSender{}, key, domain.RoleApplicant, "1", "Jordan")
	require.NotEmpty(t, id)
	assert.Equal(t, 1, h.ConnectionCount())

	conn, ok := h.Get(id)
	require.True(t, ok)
	assert.Equal(t, domain.RoleApplicant, conn.Role)
	assert.Equal(t, "Jordan", conn.UserName)

	h.Unregister(id)
	assert.Equal(t, 0, h.ConnectionCount())
	_, ok = h.Get(id)
	assert.False(t, ok)

	// Second unregister is harmless.
	h.Unregister(id)
	assert.Equal(t, 0, h.ConnectionCount())
}

func TestUnregisterLeavesRoom(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	id := h.Register(&recordingSender{}, key, domain.RoleApplicant, "1", "Jordan")
	h.Join(key, id)
	require.Len(t, h.Members(key), 1)

	h.Unregister(id)
	assert.Empty(t, h.Members(key))
}

func TestJoinLeave(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	a := h.Register(&recordingSender{}, key, domain.RoleApplicant, "1", "Jordan")
	b := h.Register(&recordingSender{}, key, domain.RoleAdmin, "9", "HR")
	h.Join(key, a)
	h.Join(key, b)
	assert.ElementsMatch(t, []string{a, b}, h.Members(key))

	h.Leave(key, a)
	assert.ElementsMatch(t, []string{b}, h.Members(key))

	h.Leave(key, b)
	assert.Empty(t, h.Members(key))

	// Leaving an unknown room is a no-op.
	h.Leave(mustKey(t, "applicant_2"), a)
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	senderPeer := &recordingSender{}
	otherPeer := &recordingSender{}
	senderID := h.Register(senderPeer, key, domain.RoleApplicant, "1", "Jordan")
	otherID := h.Register(otherPeer, key, domain.RoleAdmin, "9", "HR")
	h.Join(key, senderID)
	h.Join(key, otherID)

	h.Broadcast(key, domain.NewEvent(domain.EventTyping), senderID)
	assert.Equal(t, 0, senderPeer.count())
	assert.Equal(t, 1, otherPeer.count())

	h.Broadcast(key, domain.NewEvent(domain.EventChatMessage), "")
	assert.Equal(t, 1, senderPeer.count())
	assert.Equal(t, 2, otherPeer.count())
}

func TestBroadcastSurvivesFailingPeer(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	broken := &recordingSender{err: errors.New("write: broken pipe")}
	healthy := &recordingSender{}
	brokenID := h.Register(broken, key, domain.RoleApplicant, "1", "Jordan")
	healthyID := h.Register(healthy, key, domain.RoleAdmin, "9", "HR")
	h.Join(key, brokenID)
	h.Join(key, healthyID)

	h.Broadcast(key, domain.NewEvent(domain.EventChatMessage), "")
	assert.Equal(t, 1, healthy.count())
}

func TestSendToUnknownClientIsSilent(t *testing.T) {
	h := NewHub()
	h.SendTo("nobody", domain.NewEvent(domain.EventPong))
}

func TestTouchUpdatesLastActivity(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	id := h.Register(&recordingSender{}, key, domain.RoleApplicant, "1", "Jordan")
	conn, ok := h.Get(id)
	require.True(t, ok)

	before := conn.LastActivityAt()
	time.Sleep(5 * time.Millisecond)
	h.Touch(id)
	assert.True(t, conn.LastActivityAt().After(before))

	// Touching a gone client is a no-op.
	h.Touch("nobody")
}

func TestRoomOnlineStatus(t *testing.T) {
	h := NewHub()
	key := mustKey(t, "applicant_1")

	adminID := h.Register(&recordingSender{}, key, domain.RoleAdmin, "9", "HR")
	h.Join(key, adminID)

	status := h.RoomOnlineStatus()
	assert.False(t, status["applicant_1"], "admin alone does not make the applicant side online")

	applicantID := h.Register(&recordingSender{}, key, domain.RoleApplicant, "1", "Jordan")
	h.Join(key, applicantID)

	status = h.RoomOnlineStatus()
	assert.True(t, status["applicant_1"])

	h.Unregister(applicantID)
	status = h.RoomOnlineStatus()
	assert.False(t, status["applicant_1"])
}
