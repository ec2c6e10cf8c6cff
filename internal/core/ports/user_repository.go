package ports

import (
	"context"

	"github.com/tata/car-sales/internal/core/domain"
)

// UserRepository defines the interface for account persistence.
// Create must return domain.ErrUserExists when the username is taken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Ping(ctx context.Context) error
}
