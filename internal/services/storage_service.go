package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"servicestation/internal/models"
	"servicestation/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidDates is returned when a storage order's stop date does not
	// fall after its start date.
	ErrInvalidDates = errors.New("stop date must be after start date")
	// ErrShelfUnavailable is returned when the requested shelf is inactive.
	ErrShelfUnavailable = errors.New("shelf is not available")
)

// StorageOrderQueue receives storage order lifecycle events.
const StorageOrderQueue = "storage_order_queue"

// EventPublisher publishes domain events to a message broker queue.
type EventPublisher interface {
	Publish(queue string, body []byte) error
}

// StorageService handles business logic for warehouse shelves and storage
// orders.
type StorageService struct {
	orders  repositories.StorageOrderRepository
	shelves repositories.ShelfRepository
	events  EventPublisher
	dayRate int
	log     *logrus.Entry
}

// NewStorageService creates a new StorageService. dayRate is the price per
// day per size class unit.
func NewStorageService(
	orders repositories.StorageOrderRepository,
	shelves repositories.ShelfRepository,
	events EventPublisher,
	dayRate int,
	log *logrus.Entry,
) *StorageService {
	return &StorageService{
		orders:  orders,
		shelves: shelves,
		events:  events,
		dayRate: dayRate,
		log:     log,
	}
}

// ListAvailableShelves retrieves all shelves open for rental.
func (s *StorageService) ListAvailableShelves(ctx context.Context) ([]models.Shelf, error) {
	return s.shelves.ListAvailable(ctx)
}

// ListOrders retrieves all storage orders belonging to a user.
func (s *StorageService) ListOrders(ctx context.Context, userID uint) ([]models.StorageOrder, error) {
	return s.orders.ListByUser(ctx, userID)
}

// CreateOrder rents a shelf to a user for a date range. The cost is fixed at
// creation time: days x size class x day rate. A created order is announced
// on the broker; publish failures are logged but do not fail the order.
func (s *StorageService) CreateOrder(ctx context.Context, userID, shelfID uint, start, stop time.Time) (*models.StorageOrder, error) {
	if !stop.After(start) {
		return nil, ErrInvalidDates
	}
	shelf, err := s.shelves.GetByID(ctx, shelfID)
	if err != nil {
		if errors.Is(err, repositories.ErrShelfNotFound) {
			return nil, err
		}
		return nil, &StoreFault{Op: "shelf lookup", Err: err}
	}
	if !shelf.Active {
		return nil, ErrShelfUnavailable
	}

	days := int(stop.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	order := &models.StorageOrder{
		StartDate: start,
		StopDate:  stop,
		Cost:      days * shelf.Size.Name * s.dayRate,
		Created:   time.Now(),
		UserID:    userID,
		ShelfID:   shelf.ID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("DB error creating storage order")
		return nil, &StoreFault{Op: "storage order insert", Err: err}
	}

	s.publishCreated(order)
	return order, nil
}

func (s *StorageService) publishCreated(order *models.StorageOrder) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event_id":         uuid.New().String(),
		"event":            "storage_order.created",
		"storage_order_id": order.ID,
		"user_id":          order.UserID,
		"shelf_id":         order.ShelfID,
		"cost":             order.Cost,
	})
	if err != nil {
		s.log.WithError(err).Error("failed to marshal storage order event")
		return
	}
	if err := s.events.Publish(StorageOrderQueue, body); err != nil {
		s.log.WithError(err).WithField("storage_order_id", order.ID).
			Warn("failed to publish storage order created event")
	}
}
