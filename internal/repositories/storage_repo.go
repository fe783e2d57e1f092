package repositories

import (
	"context"
	"errors"

	"servicestation/internal/models"
)

// ErrShelfNotFound is returned when no shelf matches the lookup key.
var ErrShelfNotFound = errors.New("shelf not found")

// ShelfRepository defines the interface for warehouse shelf data access.
type ShelfRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Shelf, error)
	ListAvailable(ctx context.Context) ([]models.Shelf, error)
}

// StorageOrderRepository defines the interface for storage order data access.
type StorageOrderRepository interface {
	Create(ctx context.Context, order *models.StorageOrder) error
	ListByUser(ctx context.Context, userID uint) ([]models.StorageOrder, error)
}
