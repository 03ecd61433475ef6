// File: internal/repository/message/message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMessageNotFound = errors.New("message not found")

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (bool, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return false, fmt.Errorf("validation failed: %w", err)
	}

	// ON CONFLICT DO NOTHING makes the insert idempotent on the message ID.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(message)

	if result.Error != nil {
		log.Printf("[MessageRepository] Database error during message creation for chat %s: %v",
			message.ChatID, result.Error)
		return false, errors.New("database error creating message")
	}

	return result.RowsAffected > 0, nil
}

func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, errors.New("invalid chat ID")
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Find(&messages).Error

	if err != nil {
		log.Printf("[MessageRepository] Database error finding messages for chat %s: %v", chatID, err)
		return nil, errors.New("database error fetching messages")
	}

	return messages, nil
}

func (r *gormMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	if messageID == "" {
		return nil, errors.New("invalid message ID")
	}

	var message domain.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", messageID).Error
	if err == nil {
		return &message, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	log.Printf("[MessageRepository] FindByID database error: %v", err)
	return nil, errors.New("database query failed")
}

func (r *gormMessageRepository) ExistsByID(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, errors.New("invalid message ID")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("id = ?", messageID).Count(&count).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error checking message existence for %s: %v", messageID, err)
		return false, errors.New("database error checking message existence")
	}

	return count > 0, nil
}

func (r *gormMessageRepository) CountByChatID(ctx context.Context, chatID string) (int64, error) {
	if chatID == "" {
		return 0, errors.New("invalid chat ID")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error counting messages for chat %s: %v", chatID, err)
		return 0, errors.New("database error counting chat messages")
	}

	return count, nil
}

func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if message.ID == "" {
		return errors.New("message ID is required")
	}
	if message.ChatID == "" {
		return errors.New("chat ID is required")
	}
	if message.SenderID == "" {
		return errors.New("sender ID is required")
	}
	if strings.TrimSpace(message.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	if len(message.Content) > 10000 {
		return errors.New("message content too long (max 10000 characters)")
	}
	if !message.Type.Valid() {
		return domain.ErrInvalidMessageType
	}
	if message.Type.RequiresMedia() && message.MediaURL == "" {
		return fmt.Errorf("%s messages require a media reference", message.Type)
	}
	return nil
}
