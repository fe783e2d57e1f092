package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicestation/internal/models"

	"gorm.io/gorm"
)

// GORMShelfRepository is a GORM implementation of ShelfRepository.
type GORMShelfRepository struct {
	db *gorm.DB
}

// NewGORMShelfRepository creates a new instance of GORMShelfRepository.
func NewGORMShelfRepository(db *gorm.DB) *GORMShelfRepository {
	return &GORMShelfRepository{db: db}
}

// GetByID retrieves a shelf with its size class.
func (r *GORMShelfRepository) GetByID(ctx context.Context, id uint) (*models.Shelf, error) {
	var shelf models.Shelf
	if err := r.db.WithContext(ctx).Preload("Size").First(&shelf, "shelf_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShelfNotFound
		}
		return nil, fmt.Errorf("failed to get shelf %d: %w", id, err)
	}
	return &shelf, nil
}

// ListAvailable retrieves all active shelves.
func (r *GORMShelfRepository) ListAvailable(ctx context.Context) ([]models.Shelf, error) {
	var shelves []models.Shelf
	if err := r.db.WithContext(ctx).Preload("Size").Where("active = ?", true).Find(&shelves).Error; err != nil {
		return nil, fmt.Errorf("failed to list shelves: %w", err)
	}
	return shelves, nil
}

// GORMStorageOrderRepository is a GORM implementation of StorageOrderRepository.
type GORMStorageOrderRepository struct {
	db *gorm.DB
}

// NewGORMStorageOrderRepository creates a new instance of GORMStorageOrderRepository.
func NewGORMStorageOrderRepository(db *gorm.DB) *GORMStorageOrderRepository {
	return &GORMStorageOrderRepository{db: db}
}

// Create inserts a new storage order.
func (r *GORMStorageOrderRepository) Create(ctx context.Context, order *models.StorageOrder) error {
	if order.Created.IsZero() {
		order.Created = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create storage order: %w", err)
	}
	return nil
}

// ListByUser retrieves all storage orders belonging to a user.
func (r *GORMStorageOrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.StorageOrder, error) {
	var orders []models.StorageOrder
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list storage orders for user %d: %w", userID, err)
	}
	return orders, nil
}
