package app

import (
	"context"
	"time"

	"recruitment_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockRoomRepository mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRoomRepository) FindOrCreate(ctx context.Context, key domain.RoomKey) (*domain.ChatRoom, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatRoom), args.Error(1)
}

func (m *MockRoomRepository) UpdateLastMessage(ctx context.Context, roomID int64, messageID string, at time.Time) error {
	args := m.Called(ctx, roomID, messageID, at)
	return args.Error(0)
}

// MockMessageRepository mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) FindByMessageID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateContent(ctx context.Context, messageID, newContent string, at time.Time) error {
	args := m.Called(ctx, messageID, newContent, at)
	return args.Error(0)
}

func (m *MockMessageRepository) Tombstone(ctx context.Context, messageID string, at time.Time) error {
	args := m.Called(ctx, messageID, at)
	return args.Error(0)
}

func (m *MockMessageRepository) SetReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error {
	args := m.Called(ctx, messageID, reactions)
	return args.Error(0)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, roomID int64, messageIDs []string, readerType domain.Role) ([]string, error) {
	args := m.Called(ctx, roomID, messageIDs, readerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockCallRepository mock CallRepository
type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) Create(ctx context.Context, call *domain.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *MockCallRepository) FindByCallID(ctx context.Context, callID string) (*domain.Call, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Call), args.Error(1)
}

func (m *MockCallRepository) Accept(ctx context.Context, callID, participant, sessionRoom string) (bool, error) {
	args := m.Called(ctx, callID, participant, sessionRoom)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) Decline(ctx context.Context, callID, participant string) (bool, error) {
	args := m.Called(ctx, callID, participant)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) Expire(ctx context.Context, callID string) (bool, error) {
	args := m.Called(ctx, callID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) End(ctx context.Context, callID string, at time.Time) (bool, error) {
	args := m.Called(ctx, callID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) Missed(ctx context.Context, callID string) (bool, error) {
	args := m.Called(ctx, callID)
	return args.Bool(0), args.Error(1)
}

// MockPubSub mock PubSub
type MockPubSub struct {
	mock.Mock
}

func (m *MockPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) {
	m.Called(ctx, channel, handler)
}
