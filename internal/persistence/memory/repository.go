// Package memory provides an in-process user gateway for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

// Repository stores users in memory. It mirrors the document-store contract:
// ids are assigned on create and Save replaces the whole user.
type Repository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	order []string
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[string]domain.User)}
}

// Create assigns an id and stores the user with an empty exercise sequence.
func (r *Repository) Create(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == username {
			return nil, &domain.ValidationError{Reason: "username already taken"}
		}
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Exercises: []domain.Exercise{},
	}
	r.users[user.ID] = user
	r.order = append(r.order, user.ID)

	out := cloneUser(user)
	return &out, nil
}

// List returns all users projected to id and username, in creation order.
func (r *Repository) List(ctx context.Context) ([]domain.UserRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]domain.UserRef, 0, len(r.order))
	for _, id := range r.order {
		user := r.users[id]
		refs = append(refs, domain.UserRef{ID: user.ID, Username: user.Username})
	}
	return refs, nil
}

// FindByID returns a copy of the stored user, or (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := cloneUser(user)
	return &out, nil
}

// Save replaces the stored user document. Last write wins.
func (r *Repository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func cloneUser(user domain.User) domain.User {
	exercises := make([]domain.Exercise, len(user.Exercises))
	copy(exercises, user.Exercises)
	user.Exercises = exercises
	return user
}
