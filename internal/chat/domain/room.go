package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Role is the side of the conversation a connection speaks for.
type Role string

const (
	// RoleAdmin recruiter / HR staff side
	RoleAdmin Role = "admin"
	// RoleApplicant candidate side
	RoleApplicant Role = "applicant"
)

// Counterpart returns the opposite role of the conversation.
func (r Role) Counterpart() Role {
	if r == RoleAdmin {
		return RoleApplicant
	}
	return RoleAdmin
}

// Valid reports whether the role is a known one.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleApplicant
}

// RoomKind is the subject kind a chat room is attached to.
type RoomKind string

const (
	// RoomKindApplicant room attached to one applicant record
	RoomKindApplicant RoomKind = "applicant"
)

// CounterpartRole returns the external-party role for a room kind, the one
// whose presence makes the room count as online for the recruiter dashboard.
func (k RoomKind) CounterpartRole() Role {
	return RoleApplicant
}

// RoomKey identifies a logical chat room: subject kind plus numeric subject id.
// It is parsed once when a reference crosses a boundary (transport path, frame
// payload, persistence lookup) and immutable for the lifetime of a connection.
type RoomKey struct {
	Kind      RoomKind
	SubjectID int64
}

// ErrBadRoomKey reports an unparsable room reference.
var ErrBadRoomKey = errors.New("invalid room key")

// ParseRoomKey parses "applicant_42" (or a bare "42", which defaults to the
// applicant kind) into a RoomKey.
func ParseRoomKey(s string) (RoomKey, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/")
	if s == "" {
		return RoomKey{}, ErrBadRoomKey
	}

	kind := RoomKindApplicant
	idPart := s
	if i := strings.LastIndex(s, "_"); i >= 0 {
		k := RoomKind(s[:i])
		if k != RoomKindApplicant {
			return RoomKey{}, ErrBadRoomKey
		}
		kind = k
		idPart = s[i+1:]
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return RoomKey{}, ErrBadRoomKey
	}
	return RoomKey{Kind: kind, SubjectID: id}, nil
}

// String formats the key back to its wire form, e.g. "applicant_42".
func (k RoomKey) String() string {
	return fmt.Sprintf("%s_%d", k.Kind, k.SubjectID)
}

// IsZero reports whether the key is unset.
func (k RoomKey) IsZero() bool {
	return k.Kind == "" && k.SubjectID == 0
}

// ChatRoom is the durable room row in the relational store. Live membership is
// kept by the hub; this row anchors the message history and the last-message
// pointer shown in the recruiter inbox.
type ChatRoom struct {
	ID        int64    `gorm:"primaryKey;autoIncrement"`
	Kind      RoomKind `gorm:"column:kind;uniqueIndex:idx_room_subject;size:32"`
	SubjectID int64    `gorm:"column:subject_id;uniqueIndex:idx_room_subject"`

	LastMessageID string `gorm:"column:last_message_id;size:64"`
	LastMessageAt int64  `gorm:"column:last_message_at"`
	CreatedAt     int64  `gorm:"column:created_at;autoCreateTime"`
}

// TableName maps ChatRoom onto the platform's chat_rooms table.
func (ChatRoom) TableName() string { return "chat_rooms" }

// Key returns the logical key of the durable row.
func (r *ChatRoom) Key() RoomKey {
	return RoomKey{Kind: r.Kind, SubjectID: r.SubjectID}
}
