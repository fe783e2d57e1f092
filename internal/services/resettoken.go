package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// DefaultResetTokenTTL is the validity window of a password reset token.
const DefaultResetTokenTTL = 600 * time.Second

// ResetTokenIssuer signs and verifies short-lived password reset tokens. A
// token is a self-contained HS256 JWT carrying the user id under the
// "reset_password" claim and its expiry under "exp", so no server-side reset
// table or cleanup job is needed: the signed timestamp alone bounds the
// token's life.
type ResetTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewResetTokenIssuer creates a ResetTokenIssuer. A non-positive ttl falls
// back to DefaultResetTokenTTL.
func NewResetTokenIssuer(secret string, ttl time.Duration) *ResetTokenIssuer {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue produces a signed reset token for the user, valid from now.
func (i *ResetTokenIssuer) Issue(userID uint) (string, error) {
	return i.IssueAt(userID, time.Now())
}

// IssueAt produces a signed reset token valid for the issuer's ttl starting
// at the given instant.
func (i *ResetTokenIssuer) IssueAt(userID uint, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"reset_password": userID,
		"exp":            now.Add(i.ttl).Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// Verify checks a token against the current time. See VerifyAt.
func (i *ResetTokenIssuer) Verify(tokenString string) (uint, bool) {
	return i.VerifyAt(tokenString, time.Now())
}

// VerifyAt returns the user id bound to the token if the signature is valid
// and the token has not expired at the given instant. Malformed input, a bad
// signature, an unexpected signing method, missing claims and expiry all
// report false; nothing panics or errors out.
func (i *ResetTokenIssuer) VerifyAt(tokenString string, now time.Time) (uint, bool) {
	// Expiry is checked against the caller's clock below, not the parser's.
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok || now.Unix() > int64(exp) {
		return 0, false
	}
	subject, ok := claims["reset_password"].(float64)
	if !ok || subject < 1 {
		return 0, false
	}
	return uint(subject), true
}
