package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher derives and verifies salted password hashes with bcrypt.
// The cost knob tunes the work factor; bcrypt generates a fresh random salt
// per call and embeds it in the hash string, so two hashes of the same
// password never match.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost.
// Costs outside bcrypt's supported range fall back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted hash of the plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify recomputes the hash with the stored salt and compares in constant
// time. A malformed stored hash verifies false rather than erroring.
func (h *PasswordHasher) Verify(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
