package middleware

import (
	"servicestation/internal/session"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the ctx locals key holding the authenticated user id.
const UserIDKey = "user_id"

// LoginRequired is a Fiber middleware that rejects requests without a valid
// session and stores the user id in the context for subsequent handlers.
func LoginRequired(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := sessions.Current(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message":  "Login required",
				"redirect": "/login",
			})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the user id stored by LoginRequired.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(UserIDKey).(uint)
	return id
}
