package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"servicestation/internal/middleware"
	"servicestation/internal/repositories"
	"servicestation/internal/services"
	"servicestation/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ProfileHandler serves the per-user profile page data.
type ProfileHandler struct {
	users    repositories.UserRepository
	storage  *services.StorageService
	sessions *session.Manager
	log      *logrus.Entry
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(users repositories.UserRepository, storage *services.StorageService, sessions *session.Manager, log *logrus.Entry) *ProfileHandler {
	return &ProfileHandler{
		users:    users,
		storage:  storage,
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profile := router.Group("/profile", middleware.LoginRequired(h.sessions))
	profile.Get("/", h.HandleOwnProfile)
	profile.Get("/:id", h.HandleProfile)
}

// HandleOwnProfile redirects to the authenticated user's profile.
func (h *ProfileHandler) HandleOwnProfile(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"redirect": fmt.Sprintf("/profile/%d", middleware.CurrentUserID(c)),
	})
}

// HandleProfile returns a user's profile with their storage orders. Users
// may only view their own profile.
func (h *ProfileHandler) HandleProfile(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
		})
	}
	if uint(id) != middleware.CurrentUserID(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not yours!",
		})
	}

	user, err := h.users.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		h.log.WithError(err).Error("DB error loading profile")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Sorry, database error",
		})
	}

	orders, err := h.storage.ListOrders(c.Context(), user.ID)
	if err != nil {
		h.log.WithError(err).Error("DB error loading storage orders")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Sorry, database error",
		})
	}
	return c.JSON(fiber.Map{
		"user":           user,
		"storage_orders": orders,
	})
}
