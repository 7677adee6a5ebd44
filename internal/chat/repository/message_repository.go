package repository

import (
	"context"
	"time"

	"recruitment_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRepository definition chat message store
type MessageRepository interface {
	// Create persists a new message document.
	Create(ctx context.Context, msg *domain.Message) error
	// FindByMessageID loads one message; mongo.ErrNoDocuments when absent.
	FindByMessageID(ctx context.Context, messageID string) (*domain.Message, error)
	// UpdateContent replaces the content and marks the edit time.
	UpdateContent(ctx context.Context, messageID, newContent string, at time.Time) error
	// Tombstone soft-deletes: clears content, keeps the document.
	Tombstone(ctx context.Context, messageID string, at time.Time) error
	// SetReactions stores the full reaction list of a message.
	SetReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error
	// MarkRead flips status to read for the given ids, excluding messages the
	// reader authored and tombstoned ones. Returns the ids actually updated.
	MarkRead(ctx context.Context, roomID int64, messageIDs []string, readerType domain.Role) ([]string, error)
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("chat_messages"),
	}
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *chatMessageRepository) FindByMessageID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"message_id": messageID}).Decode(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatMessageRepository) UpdateContent(ctx context.Context, messageID, newContent string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"content":   newContent,
		"is_edited": true,
		"edited_at": at.Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"message_id": messageID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *chatMessageRepository) Tombstone(ctx context.Context, messageID string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"content":    "",
			"is_deleted": true,
			"deleted_at": at.Unix(),
		},
		"$unset": bson.M{"attachment": ""},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"message_id": messageID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *chatMessageRepository) SetReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error {
	update := bson.M{"$set": bson.M{"reactions": reactions}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"message_id": messageID}, update)
	return err
}

func (r *chatMessageRepository) MarkRead(ctx context.Context, roomID int64, messageIDs []string, readerType domain.Role) ([]string, error) {
	filter := bson.M{
		"room_id":     roomID,
		"message_id":  bson.M{"$in": messageIDs},
		"sender_type": bson.M{"$ne": readerType},
		"is_deleted":  false,
		"status":      bson.M{"$ne": domain.MessageRead},
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var matched []domain.Message
	if err := cur.All(ctx, &matched); err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.MessageID)
	}

	update := bson.M{"$set": bson.M{"status": domain.MessageRead}}
	if _, err := r.coll.UpdateMany(ctx, bson.M{"message_id": bson.M{"$in": ids}}, update); err != nil {
		return nil, err
	}
	return ids, nil
}
