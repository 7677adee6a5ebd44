package app

import (
	"context"
	"time"

	"recruitment_chat_service/internal/chat/domain"
	"recruitment_chat_service/internal/chat/repository"
	errprocess "recruitment_chat_service/pkg/err"
	"recruitment_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Sender identifies the authoring side of a frame inside the use cases.
type Sender struct {
	ClientID string
	Role     domain.Role
	UserID   string
	UserName string
}

// MessageUseCase handles chat message frames: create, edit, tombstone,
// reactions and read receipts. Each method persists first and only then
// returns the event to fan out; on error no event is produced and the caller
// reports to the originating sender only.
type MessageUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
}

// NewMessageUseCase init message use case
func NewMessageUseCase(roomRepo repository.RoomRepository, msgRepo repository.MessageRepository) *MessageUseCase {
	return &MessageUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
	}
}

// Send persists a new message in the room and returns the chat_message event.
// The durable room row is resolved get-or-create so the first message of a
// conversation can arrive before the web application ever touched the room.
func (uc *MessageUseCase) Send(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) (domain.Event, error) {
	if f.Content == "" && f.File == nil {
		return nil, errprocess.Set("message requires content or file")
	}

	room, err := uc.roomRepo.FindOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}

	msgID := f.ID
	if msgID == "" {
		msgID = uuid.New().String()
	}
	now := time.Now()

	msg := &domain.Message{
		MessageID:  msgID,
		RoomID:     room.ID,
		SenderType: sender.Role,
		SenderName: sender.UserName,
		SenderID:   sender.UserID,
		Content:    f.Content,
		Attachment: f.File,
		ReplyToID:  f.ReplyToMessageID,
		Status:     domain.MessageSent,
		CreatedAt:  now.Unix(),
	}
	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// The message is durable at this point; a stale inbox pointer is not
	// worth failing the send over.
	if err := uc.roomRepo.UpdateLastMessage(ctx, room.ID, msgID, now); err != nil {
		logger.Log.Warn("update last message failed",
			zap.Int64("roomID", room.ID),
			zap.String("messageID", msgID),
			zap.Error(err),
		)
	}

	ev := domain.NewEvent(domain.EventChatMessage)
	ev["room"] = key.String()
	ev["message"] = msg
	return ev, nil
}

// Edit replaces a message's content. Tombstoned messages reject edits.
func (uc *MessageUseCase) Edit(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) (domain.Event, error) {
	if f.MessageID == "" || f.NewContent == "" {
		return nil, errprocess.Set("message_edit requires message_id and new_content")
	}

	msg, err := uc.msgRepo.FindByMessageID(ctx, f.MessageID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errprocess.Set("message not found")
		}
		return nil, err
	}
	if msg.IsDeleted {
		return nil, errprocess.Set("message is deleted")
	}

	now := time.Now()
	if err := uc.msgRepo.UpdateContent(ctx, f.MessageID, f.NewContent, now); err != nil {
		return nil, err
	}

	ev := domain.NewEvent(domain.EventMessageEdited)
	ev["room"] = key.String()
	ev["message_id"] = f.MessageID
	ev["new_content"] = f.NewContent
	ev["edited_at"] = now.Unix()
	return ev, nil
}

// Delete tombstones a message: content cleared, record retained. Deleting an
// already-deleted message is a no-op that still reports success.
func (uc *MessageUseCase) Delete(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) (domain.Event, error) {
	if f.MessageID == "" {
		return nil, errprocess.Set("message_delete requires message_id")
	}

	if err := uc.msgRepo.Tombstone(ctx, f.MessageID, time.Now()); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errprocess.Set("message not found")
		}
		return nil, err
	}

	ev := domain.NewEvent(domain.EventMessageDeleted)
	ev["room"] = key.String()
	ev["message_id"] = f.MessageID
	return ev, nil
}

// React applies an idempotent reaction add/remove keyed by (user type,
// emoji). Tombstoned messages reject reactions; edited messages accept them.
func (uc *MessageUseCase) React(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) (domain.Event, error) {
	if f.MessageID == "" || f.Emoji == "" {
		return nil, errprocess.Set("reaction requires message_id and emoji")
	}
	if f.Action != domain.ReactionAdd && f.Action != domain.ReactionRemove {
		return nil, errprocess.Set("reaction action must be add or remove")
	}

	msg, err := uc.msgRepo.FindByMessageID(ctx, f.MessageID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errprocess.Set("message not found")
		}
		return nil, err
	}
	if msg.IsDeleted {
		return nil, errprocess.Set("message is deleted")
	}

	var changed bool
	if f.Action == domain.ReactionAdd {
		changed = msg.AddReaction(domain.Reaction{
			Emoji:     f.Emoji,
			UserType:  sender.Role,
			UserName:  sender.UserName,
			Timestamp: time.Now().Unix(),
		})
	} else {
		changed = msg.RemoveReaction(sender.Role, f.Emoji)
	}

	if changed {
		if err := uc.msgRepo.SetReactions(ctx, f.MessageID, msg.Reactions); err != nil {
			return nil, err
		}
	}

	ev := domain.NewEvent(domain.EventMessageReaction)
	ev["room"] = key.String()
	ev["message_id"] = f.MessageID
	ev["emoji"] = f.Emoji
	ev["action"] = f.Action
	ev["user_type"] = sender.Role
	ev["user_name"] = sender.UserName
	ev["reactions"] = msg.Reactions
	return ev, nil
}

// MarkRead flips the given messages to read, excluding the reader's own
// messages, and returns the messages_read event listing the ids that changed.
func (uc *MessageUseCase) MarkRead(ctx context.Context, key domain.RoomKey, sender Sender, f *domain.Frame) (domain.Event, error) {
	if len(f.MessageIDs) == 0 {
		return nil, errprocess.Set("message_read requires message_ids")
	}

	room, err := uc.roomRepo.FindOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}

	ids, err := uc.msgRepo.MarkRead(ctx, room.ID, f.MessageIDs, sender.Role)
	if err != nil {
		return nil, err
	}

	ev := domain.NewEvent(domain.EventMessagesRead)
	ev["room"] = key.String()
	ev["message_ids"] = ids
	ev["reader_type"] = sender.Role
	return ev, nil
}
