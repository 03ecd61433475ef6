// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"gorm.io/gorm"
)

var ErrChatNotFound = errors.New("chat not found")

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Printf("[ChatRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Create(chat).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error during chat creation for %s/%s: %v",
			chat.ParticipantA, chat.ParticipantB, err)
		return nil, errors.New("database error creating chat")
	}

	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	if id == "" {
		return nil, errors.New("invalid chat ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error
	return r.handleFindError(err, &chat, "FindByID")
}

func (r *gormChatRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Chat, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error

	if err != nil {
		log.Printf("[ChatRepository] Database error finding chats for user %s: %v", userID, err)
		return nil, errors.New("database error fetching chats")
	}

	return chats, nil
}

func (r *gormChatRepository) FindByPair(ctx context.Context, a, b string) (*domain.Chat, error) {
	if a == "" || b == "" {
		return nil, errors.New("invalid participant ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).
		Where("(participant_a = ? AND participant_b = ?) OR (participant_a = ? AND participant_b = ?)",
			a, b, b, a).
		First(&chat).Error
	return r.handleFindError(err, &chat, "FindByPair")
}

func (r *gormChatRepository) UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	if chatID == "" {
		return errors.New("invalid chat ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message": lastMessage,
			"updated_at":   at,
		})

	if result.Error != nil {
		log.Printf("[ChatRepository] Database error updating last message for chat %s: %v", chatID, result.Error)
		return errors.New("database error updating chat metadata")
	}

	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}

	return nil
}

func (r *gormChatRepository) ExistsByID(ctx context.Context, chatID string) (bool, error) {
	if chatID == "" {
		return false, errors.New("invalid chat ID")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Chat{}).Where("id = ?", chatID).Count(&count).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error checking chat existence for %s: %v", chatID, err)
		return false, errors.New("database error checking chat existence")
	}

	return count > 0, nil
}

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}
	if chat.ID == "" {
		return errors.New("chat ID is required")
	}
	if chat.ParticipantA == "" || chat.ParticipantB == "" {
		return errors.New("both participants are required")
	}
	if chat.ParticipantA == chat.ParticipantB {
		return errors.New("a chat needs two distinct participants")
	}
	if strings.Contains(chat.LastMessage, "<script") {
		return errors.New("invalid characters detected in last message")
	}
	return nil
}

// handleFindError keeps not-found distinct from technical failures without
// leaking driver details to callers.
func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat, operation string) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}

	log.Printf("[ChatRepository] %s database error: %v", operation, err)
	return nil, errors.New("database query failed")
}
