package repository

import (
	"context"
	"time"

	"recruitment_chat_service/internal/chat/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository definition durable chat room store
type RoomRepository interface {
	AutoMigrate() error
	// FindOrCreate resolves the durable room row for a logical key, creating
	// it if absent. Safe under concurrent calls for the same key: the insert
	// rides the (kind, subject_id) unique constraint and conflicting writers
	// fall back to selecting the winner's row.
	FindOrCreate(ctx context.Context, key domain.RoomKey) (*domain.ChatRoom, error)
	// UpdateLastMessage moves the room's last-message pointer.
	UpdateLastMessage(ctx context.Context, roomID int64, messageID string, at time.Time) error
}

type roomRepository struct {
	db *gorm.DB
}

// NewPGRoomRepository create a RoomRepository
func NewPGRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ChatRoom{})
}

func (r *roomRepository) FindOrCreate(ctx context.Context, key domain.RoomKey) (*domain.ChatRoom, error) {
	room := domain.ChatRoom{Kind: key.Kind, SubjectID: key.SubjectID}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "subject_id"}},
			DoNothing: true,
		}).
		Create(&room).Error
	if err != nil {
		return nil, err
	}

	// On conflict the insert is skipped and no id comes back; pick up the row
	// the concurrent winner created.
	if room.ID == 0 {
		err = r.db.WithContext(ctx).
			Where("kind = ? AND subject_id = ?", key.Kind, key.SubjectID).
			First(&room).Error
		if err != nil {
			return nil, err
		}
	}
	return &room, nil
}

func (r *roomRepository) UpdateLastMessage(ctx context.Context, roomID int64, messageID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"last_message_at": at.Unix(),
		}).Error
}
