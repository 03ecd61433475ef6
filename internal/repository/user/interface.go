// File: internal/repository/user/interface.go
package user

import (
	"context"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// UserRepository handles user account data operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs resolves a batch of user IDs in one query; missing IDs are
	// simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Search matches name, email, or region against the query, excluding
	// excludeID (the searching user), capped at limit rows.
	Search(ctx context.Context, query, excludeID string, limit int) ([]domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
