// File: internal/domain/message.go
package domain

import (
	"errors"
	"time"
)

// MessageType tags the payload variant of a message.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeVoice    MessageType = "voice"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
)

// Valid reports whether t is one of the four known variants.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeVoice, MessageTypeImage, MessageTypeDocument:
		return true
	}
	return false
}

// RequiresMedia reports whether the variant carries a stored-media reference
// in addition to its content text.
func (t MessageType) RequiresMedia() bool {
	switch t {
	case MessageTypeImage, MessageTypeDocument:
		return true
	}
	return false
}

var ErrInvalidMessageType = errors.New("invalid message type")

// Message is a single entry in a chat thread. Immutable once created;
// display order within a thread is CreatedAt ascending. The ID doubles as
// the deduplication key for idempotent inserts.
type Message struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	ChatID    string      `json:"chat_id" gorm:"index;not null"`
	SenderID  string      `json:"sender_id" gorm:"not null"`
	Content   string      `json:"content" gorm:"not null"`
	Type      MessageType `json:"type" gorm:"not null"`
	MediaURL  string      `json:"media_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// FromBot reports whether the message was authored by the assistant.
func (m *Message) FromBot() bool {
	return m.SenderID == BotParticipantID
}
