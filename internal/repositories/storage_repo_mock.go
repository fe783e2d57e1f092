package repositories

import (
	"context"
	"sync"
	"time"

	"servicestation/internal/models"
)

// MockShelfRepository is an in-memory implementation of ShelfRepository.
type MockShelfRepository struct {
	shelves map[uint]models.Shelf
	mu      sync.RWMutex
}

// NewMockShelfRepository creates a new instance of MockShelfRepository.
func NewMockShelfRepository() *MockShelfRepository {
	return &MockShelfRepository{
		shelves: make(map[uint]models.Shelf),
	}
}

// Put stores a shelf, used for seeding tests.
func (r *MockShelfRepository) Put(shelf models.Shelf) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shelves[shelf.ID] = shelf
}

// GetByID returns a shelf by ID.
func (r *MockShelfRepository) GetByID(ctx context.Context, id uint) (*models.Shelf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shelf, ok := r.shelves[id]
	if !ok {
		return nil, ErrShelfNotFound
	}
	s := shelf
	return &s, nil
}

// ListAvailable returns all active shelves.
func (r *MockShelfRepository) ListAvailable(ctx context.Context) ([]models.Shelf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shelves := make([]models.Shelf, 0, len(r.shelves))
	for _, s := range r.shelves {
		if s.Active {
			shelves = append(shelves, s)
		}
	}
	return shelves, nil
}

// MockStorageOrderRepository is an in-memory implementation of StorageOrderRepository.
type MockStorageOrderRepository struct {
	orders map[uint]models.StorageOrder
	nextID uint
	mu     sync.RWMutex
}

// NewMockStorageOrderRepository creates a new instance of MockStorageOrderRepository.
func NewMockStorageOrderRepository() *MockStorageOrderRepository {
	return &MockStorageOrderRepository{
		orders: make(map[uint]models.StorageOrder),
		nextID: 1,
	}
}

// Create adds a new storage order.
func (r *MockStorageOrderRepository) Create(ctx context.Context, order *models.StorageOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	}
	if order.Created.IsZero() {
		order.Created = time.Now()
	}
	r.orders[order.ID] = *order
	return nil
}

// ListByUser returns all orders for a user.
func (r *MockStorageOrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.StorageOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.StorageOrder, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}
