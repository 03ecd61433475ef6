// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// MessageRepository handles message data operations.
type MessageRepository interface {
	// Create persists a message. The message ID is the deduplication key:
	// inserting the same ID twice is a no-op and reports inserted=false.
	Create(ctx context.Context, message *domain.Message) (inserted bool, err error)
	// FindByChatID returns every message of a thread in creation order
	// (created_at ascending).
	FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	ExistsByID(ctx context.Context, messageID string) (bool, error)
	CountByChatID(ctx context.Context, chatID string) (int64, error)
}
