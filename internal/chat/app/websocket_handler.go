package app

import (
	"context"
	"encoding/json"

	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/internal/chat/hub"
	"recruitment_chat_service/internal/chat/repository"
	"recruitment_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Channel path segments accepted on the websocket endpoint.
const (
	ChannelAdmin     = "admin-chat"
	ChannelApplicant = "applicant-chat"
)

// ChatWebsocketHandler owns one websocket session end to end: registration,
// the read loop, frame dispatch, and teardown.
type ChatWebsocketHandler struct {
	hub       *hub.Hub
	messageUC *MessageUseCase
	callUC    *CallUseCase
	presence  repository.PubSub
}

// NewChatWebsocketHandler init chat websocket handler
func NewChatWebsocketHandler(h *hub.Hub, messageUC *MessageUseCase, callUC *CallUseCase, presence repository.PubSub) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		hub:       h,
		messageUC: messageUC,
		callUC:    callUC,
		presence:  presence,
	}
}

// RoleForChannel maps the URL channel segment to the connection role.
func RoleForChannel(channel string) (domain.Role, bool) {
	switch channel {
	case ChannelAdmin:
		return domain.RoleAdmin, true
	case ChannelApplicant:
		return domain.RoleApplicant, true
	default:
		return "", false
	}
}

// HandleConnection runs the session until the peer disconnects. The role and
// room are fixed at upgrade time from the URL; a bad room key closes the
// socket immediately.
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	role, ok := RoleForChannel(conn.Params("channel"))
	if !ok {
		logger.Log.Warn("unknown channel", zap.String("channel", conn.Params("channel")))
		conn.Close()
		return
	}

	key, err := domain.ParseRoomKey(conn.Params("room"))
	if err != nil {
		logger.Log.Warn("bad room key",
			zap.String("room", conn.Params("room")),
			zap.Error(err),
		)
		conn.Close()
		return
	}

	userID := conn.Query("user_id")
	userName := conn.Query("name")
	if userName == "" {
		userName = string(role)
	}

	clientID := h.hub.Register(conn, key, role, userID, userName)
	h.hub.Join(key, clientID)

	defer func() {
		h.hub.Unregister(clientID)
		h.publishPresence(key)
		conn.Close()
	}()

	greeting := domain.NewEvent(domain.EventConnectionEstablished)
	greeting["client_id"] = clientID
	greeting["room"] = key.String()
	h.hub.SendTo(clientID, greeting)

	h.publishPresence(key)

	sender := Sender{ClientID: clientID, Role: role, UserID: userID, UserName: userName}

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Log.Debug("read loop ended",
				zap.String("clientID", clientID),
				zap.Error(err),
			)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var f domain.Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			logger.Log.Warn("frame unmarshal failed",
				zap.String("clientID", clientID),
				zap.Error(err),
			)
			continue
		}

		h.hub.Touch(clientID)
		h.dispatch(ctx, key, sender, &f)
	}
}

// dispatch routes one frame. Use case errors go back to the originating
// sender only as <type>_error; other members never see failed frames.
func (h *ChatWebsocketHandler) dispatch(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) {
	switch f.Type {
	case domain.FrameMessage:
		ev, err := h.messageUC.Send(ctx, key, sender, f)
		if err != nil {
			h.sendError(sender.ClientID, f.Type, err)
			return
		}
		h.hub.Broadcast(key, ev, "")

	case domain.FrameTyping:
		ev := domain.NewEvent(domain.EventTyping)
		ev["room"] = key.String()
		ev["user_type"] = sender.Role
		ev["user_name"] = sender.UserName
		ev["is_typing"] = f.IsTyping
		h.hub.Broadcast(key, ev, sender.ClientID)

	case domain.FrameTypingPreview:
		ev := domain.NewEvent(domain.EventTypingPreview)
		ev["room"] = key.String()
		ev["user_type"] = sender.Role
		ev["preview"] = f.Preview
		h.hub.Broadcast(key, ev, sender.ClientID)

	case domain.FrameReaction:
		ev, err := h.messageUC.React(ctx, key, sender, f)
		if err != nil {
			h.sendError(sender.ClientID, f.Type, err)
			return
		}
		h.hub.Broadcast(key, ev, "")

	case domain.FrameMessageEdit:
		ev, err := h.messageUC.Edit(ctx, key, sender, f)
		if err != nil {
			h.sendError(sender.ClientID, f.Type, err)
			return
		}
		h.hub.Broadcast(key, ev, "")

	case domain.FrameMessageDelete:
		ev, err := h.messageUC.Delete(ctx, key, sender, f)
		if err != nil {
			h.sendError(sender.ClientID, f.Type, err)
			return
		}
		h.hub.Broadcast(key, ev, "")

	case domain.FrameMessageRead:
		ev, err := h.messageUC.MarkRead(ctx, key, sender, f)
		if err != nil {
			h.sendError(sender.ClientID, f.Type, err)
			return
		}
		h.hub.Broadcast(key, ev, "")

	case domain.FramePing:
		h.hub.SendTo(sender.ClientID, domain.NewEvent(domain.EventPong))

	case domain.FrameCallRequest:
		if err := h.callUC.Request(ctx, key, sender, f); err != nil {
			h.sendError(sender.ClientID, f.Type, err)
		}

	case domain.FrameCallResponse:
		if err := h.callUC.Respond(ctx, key, sender, f); err != nil {
			h.sendError(sender.ClientID, f.Type, err)
		}

	case domain.FrameCallEnd:
		if err := h.callUC.End(ctx, key, sender, f); err != nil {
			h.sendError(sender.ClientID, f.Type, err)
		}

	default:
		logger.Log.Warn("unknown frame type",
			zap.String("clientID", sender.ClientID),
			zap.String("type", f.Type),
		)
	}
}

func (h *ChatWebsocketHandler) sendError(clientID, frameType string, err error) {
	h.hub.SendTo(clientID, domain.NewErrorEvent(frameType, err.Error()))
}

// publishPresence pushes the room's online status to the room itself and to
// the web application over redis.
func (h *ChatWebsocketHandler) publishPresence(key domain.RoomKey) {
	status := h.hub.RoomOnlineStatus()
	online := status[key.String()]

	ev := domain.NewEvent(domain.EventPresenceUpdate)
	ev["room"] = key.String()
	ev["online"] = online
	h.hub.Broadcast(key, ev, "")

	if h.presence != nil {
		payload := map[string]interface{}{
			"room":   key.String(),
			"online": online,
		}
		if err := h.presence.Publish(repository.PresenceChannel, payload); err != nil {
			logger.Log.Warn("presence publish failed",
				zap.String("room", key.String()),
				zap.Error(err),
			)
		}
	}
}
