package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicestation/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user row. The insert is a single statement, so either
// the full row commits or nothing does. A unique-index violation on email is
// reported as ErrDuplicateEmail.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Created.IsZero() {
		user.Created = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash for a user.
func (r *GORMUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
