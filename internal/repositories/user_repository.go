package repositories

import (
	"context"
	"errors"

	"servicestation/internal/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert violates the unique
	// index on users.email. The index is the authoritative duplicate
	// guard; the validator's pre-check is only a fast path.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}
