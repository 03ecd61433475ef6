// File: internal/repository/user/user_repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("user and user ID are required")
	}
	if err := user.IsValid(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	exists, err := r.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("[UserRepository] Database error during user creation: %v", err)
		return nil, errors.New("database error creating user")
	}

	return user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, errors.New("invalid user ID")
	}

	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	return r.handleFindError(err, &user, "FindByID")
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, errors.New("invalid email")
	}

	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	return r.handleFindError(err, &user, "FindByEmail")
}

func (r *gormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []domain.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		log.Printf("[UserRepository] Database error resolving %d user IDs: %v", len(ids), err)
		return nil, errors.New("database error fetching users")
	}

	return users, nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return errors.New("invalid user")
	}
	if err := user.IsValid(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		log.Printf("[UserRepository] Database error updating user %s: %v", user.ID, result.Error)
		return errors.New("database error updating user")
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *gormUserRepository) Search(ctx context.Context, query, excludeID string, limit int) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}
	if err := r.validateSearchPattern(query); err != nil {
		return nil, fmt.Errorf("invalid search pattern: %w", err)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pattern := fmt.Sprintf("%%%s%%", query)
	var users []domain.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("full_name LIKE ? OR email LIKE ? OR region LIKE ?", pattern, pattern, pattern).
		Limit(limit).
		Find(&users).Error

	if err != nil {
		log.Printf("[UserRepository] Database error searching users: %v", err)
		return nil, errors.New("database error searching users")
	}

	return users, nil
}

func (r *gormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, errors.New("invalid email")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		log.Printf("[UserRepository] Database error checking email existence: %v", err)
		return false, errors.New("database error checking email")
	}

	return count > 0, nil
}

func (r *gormUserRepository) validateSearchPattern(pattern string) error {
	if len(pattern) > 100 {
		return errors.New("search pattern too long")
	}
	// Prevent wildcard injection in LIKE queries.
	if strings.ContainsAny(pattern, "%_\\") {
		return errors.New("invalid characters in search pattern")
	}
	return nil
}

func (r *gormUserRepository) handleFindError(err error, user *domain.User, operation string) (*domain.User, error) {
	if err == nil {
		return user, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	log.Printf("[UserRepository] %s database error: %v", operation, err)
	return nil, errors.New("database query failed")
}
