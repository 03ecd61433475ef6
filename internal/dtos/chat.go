// File: internal/dtos/chat.go
package dtos

import (
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// ThreadResponseDTO is one conversation with the peer's display profile.
type ThreadResponseDTO struct {
	ID          string     `json:"id"`
	Peer        ProfileDTO `json:"peer"`
	LastMessage string     `json:"last_message"`
	UpdatedAt   string     `json:"updated_at"`
	IsBot       bool       `json:"is_bot"`
}

type ProfileDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Region   string `json:"region"`
}

func NewThreadResponse(c domain.Chat, peer domain.Profile) ThreadResponseDTO {
	return ThreadResponseDTO{
		ID: c.ID,
		Peer: ProfileDTO{
			ID:       peer.ID,
			FullName: peer.FullName,
			Email:    peer.Email,
			Region:   peer.Region,
		},
		LastMessage: c.LastMessage,
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
		IsBot:       c.IsBotChat(),
	}
}

// StartThreadRequestDTO opens a conversation with another user or the bot.
type StartThreadRequestDTO struct {
	PeerID string `json:"peer_id"`
}

// MessageResponseDTO is one message; bot messages additionally carry the
// markdown content rendered to HTML.
type MessageResponseDTO struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	HTML      string `json:"html,omitempty"`
	Type      string `json:"type"`
	MediaURL  string `json:"media_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

// SendMessageRequestDTO is the send-message payload.
type SendMessageRequestDTO struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	MediaURL string `json:"media_url"`
}
