// File: internal/repository/clientstate/state_repository.go
package clientstate

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStateNotFound = errors.New("client state not found")

// stateEntry is the backing row for one key-value blob.
type stateEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (stateEntry) TableName() string { return "client_state" }

type gormStateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) StateRepository {
	return &gormStateRepository{db: db}
}

// Migrate creates the backing table. Called from server wiring alongside the
// domain migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&stateEntry{})
}

func (r *gormStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("invalid state key")
	}

	var entry stateEntry
	err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err == nil {
		return entry.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStateNotFound
	}

	log.Printf("[StateRepository] Database error reading key %q: %v", key, err)
	return nil, errors.New("database error reading client state")
}

func (r *gormStateRepository) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("invalid state key")
	}

	entry := stateEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error

	if err != nil {
		log.Printf("[StateRepository] Database error writing key %q: %v", key, err)
		return errors.New("database error writing client state")
	}

	return nil
}

func (r *gormStateRepository) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("invalid state key")
	}

	err := r.db.WithContext(ctx).Delete(&stateEntry{}, "key = ?", key).Error
	if err != nil {
		log.Printf("[StateRepository] Database error deleting key %q: %v", key, err)
		return errors.New("database error deleting client state")
	}

	return nil
}
