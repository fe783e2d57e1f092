package handlers

import (
	"errors"
	"fmt"
	"strings"

	"servicestation/internal/services"
	"servicestation/internal/session"
	"servicestation/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for the authentication flows.
type AuthHandler struct {
	auth     *services.AuthService
	sessions *session.Manager
	log      *logrus.Entry
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService, sessions *session.Manager, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
	router.Post("/register", h.HandleRegister)
	router.Post("/reset_password_request", h.HandleResetPasswordRequest)
	router.Post("/reset_password/:token", h.HandleResetPassword)
}

// HandleLogin authenticates a user and establishes a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.JSON(fiber.Map{
			"message":  "Already logged in",
			"redirect": "/",
		})
	}

	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return badRequestBody(c, err)
	}
	if errs := h.auth.Validator().ValidateLogin(&form); errs != nil {
		return validationFailed(c, errs)
	}

	user, err := h.auth.Login(c.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid email or password",
			})
		}
		return h.flowFailed(c, err)
	}

	if err := h.sessions.Establish(c, user.ID, form.Remember); err != nil {
		h.log.WithError(err).Error("failed to establish session")
		return internalError(c)
	}
	return c.JSON(fiber.Map{
		"message":  "Welcome!",
		"redirect": nextDestination(c),
	})
}

// HandleLogout terminates the session unconditionally.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	h.sessions.Terminate(c)
	return c.JSON(fiber.Map{
		"message":  "Logged out",
		"redirect": "/login",
	})
}

// HandleRegister creates a new user and logs them in.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.JSON(fiber.Map{
			"message":  "Email already registered",
			"redirect": "/",
		})
	}

	var form validation.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return badRequestBody(c, err)
	}

	user, err := h.auth.Register(c.Context(), &form)
	if err != nil {
		return h.flowFailed(c, err)
	}

	if err := h.sessions.Establish(c, user.ID, false); err != nil {
		h.log.WithError(err).Error("failed to establish session")
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Thanks for registering",
		"redirect": fmt.Sprintf("/profile/%d", user.ID),
		"user":     user,
	})
}

// HandleResetPasswordRequest issues reset instructions by email. The
// response body is identical whether or not the account exists.
func (h *AuthHandler) HandleResetPasswordRequest(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.JSON(fiber.Map{"redirect": "/"})
	}

	var form validation.ResetRequestForm
	if err := c.BodyParser(&form); err != nil {
		return badRequestBody(c, err)
	}
	if errs := h.auth.Validator().ValidateResetRequest(&form); errs != nil {
		return validationFailed(c, errs)
	}

	if err := h.auth.RequestPasswordReset(c.Context(), form.Email); err != nil {
		return h.flowFailed(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Check your email for the instructions to reset your password",
		"redirect": "/login",
	})
}

// HandleResetPassword replaces a user's password given a valid reset token.
// No session is established; the user logs in again.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.JSON(fiber.Map{"redirect": "/"})
	}

	var form validation.ResetPasswordForm
	if err := c.BodyParser(&form); err != nil {
		return badRequestBody(c, err)
	}

	err := h.auth.ResetPassword(c.Context(), c.Params("token"), form.Password, form.PasswordCheck)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message":  "Invalid or expired token",
				"redirect": "/reset_password_request",
			})
		}
		return h.flowFailed(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Your password has been reset.",
		"redirect": "/login",
	})
}

// flowFailed maps the shared flow error taxonomy to responses: field errors
// re-render the form, store faults become a generic transient error.
func (h *AuthHandler) flowFailed(c *fiber.Ctx, err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return validationFailed(c, fieldErrs)
	}
	var fault *services.StoreFault
	if errors.As(err, &fault) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Sorry, database error",
		})
	}
	h.log.WithError(err).Error("unexpected auth flow error")
	return internalError(c)
}

func validationFailed(c *fiber.Ctx, errs validation.Errors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errs,
	})
}

func badRequestBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}

// nextDestination returns the caller-supplied post-login destination, or
// home. Only site-local paths are honored.
func nextDestination(c *fiber.Ctx) string {
	next := c.Query("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
