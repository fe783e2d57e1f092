package repositories

import (
	"context"
	"sync"
	"time"

	"servicestation/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create adds a new user, enforcing email uniqueness like the DB index does.
func (r *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	if user.Created.IsZero() {
		user.Created = time.Now()
	}
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := u
	return &user, nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *MockUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}
