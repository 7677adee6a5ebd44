package router

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"recruitment_chat_service/internal/chat/app"
	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/internal/chat/hub"
	"recruitment_chat_service/internal/chat/repository"
	"recruitment_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

// startChatServer runs a fiber app with mocked stores on a random port and
// returns its base address.
func startChatServer(t *testing.T) string {
	t.Helper()

	roomRepo := new(app.MockRoomRepository)
	roomRepo.On("FindOrCreate", mock.Anything, mock.AnythingOfType("domain.RoomKey")).
		Return(&domain.ChatRoom{ID: 7, Kind: domain.RoomKindApplicant, SubjectID: 42}, nil).Maybe()
	roomRepo.On("UpdateLastMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()

	msgRepo := new(app.MockMessageRepository)
	msgRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil).Maybe()

	callRepo := new(app.MockCallRepository)

	pubsub := new(app.MockPubSub)
	pubsub.On("Publish", repository.PresenceChannel, mock.Anything).Return(nil).Maybe()

	chatHub := hub.NewHub()
	messageUC := app.NewMessageUseCase(roomRepo, msgRepo)
	callUC := app.NewCallUseCase(callRepo, roomRepo, chatHub, time.Hour)

	r := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(r, app.NewChatWebsocketHandler(chatHub, messageUC, callUC, pubsub))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = r.Listener(ln)
	}()
	t.Cleanup(func() { _ = r.Shutdown() })

	return ln.Addr().String()
}

func dialChat(t *testing.T, addr, channel, room, name string) *websocket.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://%s/ws/%s/%s?user_id=1&name=%s", addr, channel, room, name)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForEvent reads frames until one of the wanted type arrives.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var ev map[string]interface{}
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", eventType)
		if ev["type"] == eventType {
			return ev
		}
	}
}

func TestHealthz(t *testing.T) {
	addr := startChatServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownChannelRejected(t *testing.T) {
	addr := startChatServer(t)

	url := fmt.Sprintf("ws://%s/ws/guest-chat/applicant_42", addr)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessageFanOut(t *testing.T) {
	addr := startChatServer(t)

	admin := dialChat(t, addr, "admin-chat", "applicant_42", "HR")
	waitForEvent(t, admin, domain.EventConnectionEstablished)

	applicant := dialChat(t, addr, "applicant-chat", "applicant_42", "Jordan")
	waitForEvent(t, applicant, domain.EventConnectionEstablished)

	// The applicant coming online reaches the admin; after this both sides
	// are members of the room.
	presence := waitForEvent(t, admin, domain.EventPresenceUpdate)
	assert.Equal(t, true, presence["online"])

	payload, err := json.Marshal(map[string]interface{}{
		"type":    domain.FrameMessage,
		"content": "hello Jordan",
	})
	require.NoError(t, err)
	require.NoError(t, admin.WriteMessage(websocket.TextMessage, payload))

	for name, conn := range map[string]*websocket.Conn{"admin": admin, "applicant": applicant} {
		ev := waitForEvent(t, conn, domain.EventChatMessage)
		msg, ok := ev["message"].(map[string]interface{})
		require.True(t, ok, "%s payload", name)
		assert.Equal(t, "hello Jordan", msg["content"])
		assert.Equal(t, "admin", msg["sender_type"])
	}
}

func TestTypingExcludesSender(t *testing.T) {
	addr := startChatServer(t)

	admin := dialChat(t, addr, "admin-chat", "applicant_42", "HR")
	waitForEvent(t, admin, domain.EventConnectionEstablished)

	applicant := dialChat(t, addr, "applicant-chat", "applicant_42", "Jordan")
	waitForEvent(t, applicant, domain.EventConnectionEstablished)
	waitForEvent(t, admin, domain.EventPresenceUpdate)

	payload, err := json.Marshal(map[string]interface{}{
		"type":      domain.FrameTyping,
		"is_typing": true,
	})
	require.NoError(t, err)
	require.NoError(t, admin.WriteMessage(websocket.TextMessage, payload))

	ev := waitForEvent(t, applicant, domain.EventTyping)
	assert.Equal(t, true, ev["is_typing"])
	assert.Equal(t, "admin", ev["user_type"])

	// The sender gets a pong for its ping but never its own typing relay.
	ping, err := json.Marshal(map[string]interface{}{"type": domain.FramePing})
	require.NoError(t, err)
	require.NoError(t, admin.WriteMessage(websocket.TextMessage, ping))

	var next map[string]interface{}
	require.NoError(t, admin.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, admin.ReadJSON(&next))
	assert.Equal(t, domain.EventPong, next["type"])
}

func TestBadRoomKeyClosesSocket(t *testing.T) {
	addr := startChatServer(t)

	url := fmt.Sprintf("ws://%s/ws/applicant-chat/applicant_abc", addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
