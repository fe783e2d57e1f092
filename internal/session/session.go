// Package session owns the session boundary between the auth flows and the
// web layer: a signed JWT cookie carrying the user id. The rest of the
// application only sees Establish, Terminate and Current.
package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// CookieName is the session cookie name.
const CookieName = "session"

const (
	sessionTTL  = 24 * time.Hour
	rememberTTL = 30 * 24 * time.Hour
)

// Manager establishes, terminates and inspects cookie sessions.
type Manager struct {
	secret []byte
}

// NewManager creates a session Manager signing with the given secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Establish binds a session to the user. With persistent set (remember-me)
// the cookie survives the browser session for thirty days; otherwise it is a
// session-only cookie backed by a 24h token.
func (m *Manager) Establish(c *fiber.Ctx, userID uint, persistent bool) error {
	ttl := sessionTTL
	if persistent {
		ttl = rememberTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	}
	if persistent {
		cookie.Expires = now.Add(ttl)
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)
	return nil
}

// Terminate drops the session cookie.
func (m *Manager) Terminate(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// Current returns the authenticated user id for the request, if any. A
// missing, malformed, tampered or expired cookie reports false.
func (m *Manager) Current(c *fiber.Ctx) (uint, bool) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return 0, false
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.StandardClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
