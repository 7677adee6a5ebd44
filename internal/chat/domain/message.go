package domain

import "time"

// MessageStatus delivery status recorded on a message
type MessageStatus string

const (
	// MessageSent persisted, not yet read by the counterpart
	MessageSent MessageStatus = "sent"
	// MessageRead counterpart confirmed a read receipt
	MessageRead MessageStatus = "read"
)

// Attachment file metadata carried on a message (the file itself lives in the
// platform's object store, referenced by URL only)
type Attachment struct {
	URL  string `bson:"url" json:"url"`
	Name string `bson:"name" json:"name"`
	Size int64  `bson:"size" json:"size"`
	Type string `bson:"type" json:"type"`
}

// Reaction one emoji reaction on a message, unique per (user type, emoji)
type Reaction struct {
	Emoji     string `bson:"emoji" json:"emoji"`
	UserType  Role   `bson:"user_type" json:"user_type"`
	UserName  string `bson:"user_name" json:"user_name"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// Message one chat message document. Deleting is a tombstone: content is
// cleared and IsDeleted set, the document itself is never removed.
type Message struct {
	MessageID  string        `bson:"message_id" json:"message_id"`
	RoomID     int64         `bson:"room_id" json:"room_id"`
	SenderType Role          `bson:"sender_type" json:"sender_type"`
	SenderName string        `bson:"sender_name" json:"sender_name"`
	SenderID   string        `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Content    string        `bson:"content" json:"content"`
	Attachment *Attachment   `bson:"attachment,omitempty" json:"attachment,omitempty"`
	ReplyToID  string        `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	Status     MessageStatus `bson:"status" json:"status"`
	Reactions  []Reaction    `bson:"reactions,omitempty" json:"reactions,omitempty"`
	IsEdited   bool          `bson:"is_edited" json:"is_edited"`
	EditedAt   int64         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted  bool          `bson:"is_deleted" json:"is_deleted"`
	DeletedAt  int64         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt  int64         `bson:"created_at" json:"created_at"`
}

// AddReaction appends the reaction unless the same (user type, emoji) pair is
// already present. Returns whether the message changed.
func (m *Message) AddReaction(r Reaction) bool {
	for _, existing := range m.Reactions {
		if existing.UserType == r.UserType && existing.Emoji == r.Emoji {
			return false
		}
	}
	m.Reactions = append(m.Reactions, r)
	return true
}

// RemoveReaction deletes the matching (user type, emoji) entry if present.
// Returns whether the message changed.
func (m *Message) RemoveReaction(userType Role, emoji string) bool {
	for i, existing := range m.Reactions {
		if existing.UserType == userType && existing.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		}
	}
	return false
}

// ApplyEdit replaces the content and marks the edit time.
func (m *Message) ApplyEdit(newContent string, at time.Time) {
	m.Content = newContent
	m.IsEdited = true
	m.EditedAt = at.Unix()
}

// Tombstone soft-deletes the message: content cleared, record retained.
func (m *Message) Tombstone(at time.Time) {
	m.Content = ""
	m.Attachment = nil
	m.IsDeleted = true
	m.DeletedAt = at.Unix()
}
