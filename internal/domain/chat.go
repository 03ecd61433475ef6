// File: internal/domain/chat.go
package domain

import "time"

// BotParticipantID is the reserved participant identifier for the automated
// assistant. Real user IDs are UUIDs, so the prefix can never collide.
const BotParticipantID = "bot-agrisaarthi"

// BotProfile is the fixed display profile substituted wherever the bot
// appears as a thread participant.
var BotProfile = Profile{
	ID:       BotParticipantID,
	FullName: "AgriSaarthi Bot",
	Email:    "bot@agrisaarthi.com",
	Region:   "AI Assistant",
}

// Chat is a conversation thread between exactly two participants, one of
// which may be the bot. LastMessage and UpdatedAt are denormalized for list
// rendering and refreshed on every send.
type Chat struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	ParticipantA string    `json:"participant_a" gorm:"index;not null"`
	ParticipantB string    `json:"participant_b" gorm:"index;not null"`
	LastMessage  string    `json:"last_message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Peer returns the other participant of the thread, or "" when the given
// user is not a participant at all.
func (c *Chat) Peer(userID string) string {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	default:
		return ""
	}
}

// HasParticipant reports whether userID is one of the two thread members.
func (c *Chat) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// IsBotChat reports whether the reserved bot identity sits on either side.
func (c *Chat) IsBotChat() bool {
	return c.ParticipantA == BotParticipantID || c.ParticipantB == BotParticipantID
}
