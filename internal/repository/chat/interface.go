// File: internal/repository/chat/interface.go
package chat

import (
	"context"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// ChatRepository handles chat thread data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	// FindByParticipant returns every thread where the user sits on either
	// side, most recently updated first.
	FindByParticipant(ctx context.Context, userID string) ([]domain.Chat, error)
	// FindByPair returns the thread between the two participants regardless
	// of orientation, or ErrChatNotFound.
	FindByPair(ctx context.Context, a, b string) (*domain.Chat, error)
	// UpdateLastMessage refreshes the denormalized last-message fields.
	// Last write wins when both participants send simultaneously.
	UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error
	ExistsByID(ctx context.Context, chatID string) (bool, error)
}
