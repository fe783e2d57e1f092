package handlers

import (
	"errors"
	"time"

	"servicestation/internal/middleware"
	"servicestation/internal/repositories"
	"servicestation/internal/services"
	"servicestation/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// dateLayout is the wire format for storage order dates.
const dateLayout = "2006-01-02"

// StorageHandler handles HTTP requests for warehouse shelves and storage
// orders.
type StorageHandler struct {
	service  *services.StorageService
	sessions *session.Manager
	log      *logrus.Entry
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(service *services.StorageService, sessions *session.Manager, log *logrus.Entry) *StorageHandler {
	return &StorageHandler{
		service:  service,
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes registers the storage routes with the Fiber app.
func (h *StorageHandler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api/v1", middleware.LoginRequired(h.sessions))
	api.Get("/shelves", h.HandleListShelves)
	api.Get("/storage-orders", h.HandleListOrders)
	api.Post("/storage-orders", h.HandleCreateOrder)
}

// HandleListShelves returns all shelves open for rental.
func (h *StorageHandler) HandleListShelves(c *fiber.Ctx) error {
	shelves, err := h.service.ListAvailableShelves(c.Context())
	if err != nil {
		h.log.WithError(err).Error("DB error listing shelves")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Sorry, database error",
		})
	}
	return c.JSON(shelves)
}

// HandleListOrders returns the current user's storage orders.
func (h *StorageHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.log.WithError(err).Error("DB error listing storage orders")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Sorry, database error",
		})
	}
	return c.JSON(orders)
}

// createOrderRequest is the request body for creating a storage order.
type createOrderRequest struct {
	ShelfID   uint   `json:"shelf_id" form:"shelf_id"`
	StartDate string `json:"start_date" form:"start_date"`
	StopDate  string `json:"stop_date" form:"stop_date"`
}

// HandleCreateOrder rents a shelf to the current user.
func (h *StorageHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, err)
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "start_date must be formatted as YYYY-MM-DD",
		})
	}
	stop, err := time.Parse(dateLayout, req.StopDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "stop_date must be formatted as YYYY-MM-DD",
		})
	}

	order, err := h.service.CreateOrder(c.Context(), middleware.CurrentUserID(c), req.ShelfID, start, stop)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDates),
			errors.Is(err, services.ErrShelfUnavailable),
			errors.Is(err, repositories.ErrShelfNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		default:
			h.log.WithError(err).Error("failed to create storage order")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Sorry, database error",
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
