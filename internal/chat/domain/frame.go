package domain

import "time"

// Inbound frame types. Every client frame is a tagged union on "type".
const (
	// FrameMessage send a chat message
	FrameMessage = "message"
	// FrameTyping typing indicator on/off
	FrameTyping = "typing"
	// FrameTypingPreview live draft preview while typing
	FrameTypingPreview = "typing_preview"
	// FrameReaction add/remove an emoji reaction
	FrameReaction = "reaction"
	// FrameMessageEdit edit an existing message
	FrameMessageEdit = "message_edit"
	// FrameMessageDelete tombstone an existing message
	FrameMessageDelete = "message_delete"
	// FrameMessageRead bulk read receipt
	FrameMessageRead = "message_read"
	// FramePing liveness probe, answered with pong to the sender only
	FramePing = "ping"
	// FrameCallRequest start call negotiation
	FrameCallRequest = "video_call_request"
	// FrameCallResponse accept/reject a ringing call
	FrameCallResponse = "video_call_response"
	// FrameCallEnd hang up an active call
	FrameCallEnd = "video_call_end"
)

// Outbound event types.
const (
	// EventChatMessage persisted chat message, fanned out incl. sender
	EventChatMessage = "chat_message"
	// EventTyping typing indicator relay, sender excluded
	EventTyping = "typing"
	// EventTypingPreview draft preview relay, sender excluded
	EventTypingPreview = "typing_preview"
	// EventMessageReaction reaction change
	EventMessageReaction = "message_reaction"
	// EventMessageEdited message content replaced
	EventMessageEdited = "message_edited"
	// EventMessageDeleted message tombstoned
	EventMessageDeleted = "message_deleted"
	// EventMessagesRead bulk read receipt applied
	EventMessagesRead = "messages_read"
	// EventPong ping reply, sender only
	EventPong = "pong"
	// EventConnectionEstablished greeting with the assigned client id
	EventConnectionEstablished = "connection_established"
	// EventPresenceUpdate room online status changed
	EventPresenceUpdate = "presence_update"
	// EventCallIncoming a call is ringing
	EventCallIncoming = "video_call_incoming"
	// EventCallResponse counterpart answered (declined path)
	EventCallResponse = "video_call_response"
	// EventCallReady call accepted, session room issued
	EventCallReady = "video_call_ready"
	// EventCallExpired nobody answered within the window
	EventCallExpired = "video_call_expired"
	// EventCallEnded active call hung up
	EventCallEnded = "video_call_ended"
)

// ReactionAdd / ReactionRemove are the two reaction frame actions.
const (
	ReactionAdd    = "add"
	ReactionRemove = "remove"
)

// CallAccept / CallReject are the two call response actions.
const (
	CallAccept = "accept"
	CallReject = "reject"
)

// Frame is one inbound websocket frame. Fields beyond Type are populated
// per frame type; unknown fields are ignored.
type Frame struct {
	Type string `json:"type"`

	// message
	ID               string      `json:"id,omitempty"`
	Content          string      `json:"content,omitempty"`
	File             *Attachment `json:"file,omitempty"`
	ReplyToMessageID string      `json:"reply_to_message_id,omitempty"`

	// typing / typing_preview
	IsTyping bool   `json:"is_typing,omitempty"`
	Preview  string `json:"preview,omitempty"`

	// reaction / message_edit / message_delete
	MessageID  string `json:"message_id,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	Action     string `json:"action,omitempty"`
	NewContent string `json:"new_content,omitempty"`

	// message_read
	MessageIDs []string `json:"message_ids,omitempty"`

	// call signaling
	CallID      string                 `json:"call_id,omitempty"`
	RoomID      string                 `json:"room_id,omitempty"`
	CallerName  string                 `json:"caller_name,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// Event is one outbound websocket frame. Every event carries its type and an
// ISO-8601 timestamp; the rest of the payload is event specific.
type Event map[string]interface{}

// NewEvent create an event of the given type, stamped with the current time.
func NewEvent(eventType string) Event {
	return Event{
		"type":      eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorEvent create a <frameType>_error event for the originating sender.
func NewErrorEvent(frameType, errMsg string) Event {
	ev := NewEvent(frameType + "_error")
	ev["error"] = errMsg
	return ev
}

// Kind returns the event type tag.
func (e Event) Kind() string {
	s, _ := e["type"].(string)
	return s
}
