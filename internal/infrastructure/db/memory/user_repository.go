// Package memory holds an in-process account store. Usernames are unique,
// which mirrors the unique index the database-backed stores enforce.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tata/car-sales/internal/core/domain"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.users[stored.Username] = &stored
	r.order = append(r.order, stored.Username)

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// List returns the stored users in insertion order.
func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.order))
	for _, name := range r.order {
		u := *r.users[name]
		out = append(out, &u)
	}
	return out, nil
}

func (r *UserRepository) Ping(context.Context) error { return nil }
