package services_test

import (
	"strings"
	"testing"
	"time"

	"servicestation/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenSecret = "test_reset_secret"

func TestResetTokenIssuer_ValidWithinWindow(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)
	now := time.Now()

	token, err := issuer.IssueAt(42, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok := issuer.VerifyAt(token, now)
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)

	userID, ok = issuer.VerifyAt(token, now.Add(600*time.Second-time.Second))
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)
}

func TestResetTokenIssuer_Expiry(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)
	now := time.Now()

	token, err := issuer.IssueAt(42, now)
	require.NoError(t, err)

	_, ok := issuer.VerifyAt(token, now.Add(600*time.Second+time.Second))
	assert.False(t, ok)
}

func TestResetTokenIssuer_Tampering(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	// Flip one character of the claims segment.
	parts := strings.SplitN(token, ".", 3)
	require.Len(t, parts, 3)
	claims := []byte(parts[1])
	if claims[0] == 'A' {
		claims[0] = 'B'
	} else {
		claims[0] = 'A'
	}
	tampered := parts[0] + "." + string(claims) + "." + parts[2]

	_, ok := issuer.Verify(tampered)
	assert.False(t, ok)
}

func TestResetTokenIssuer_WrongSecret(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)
	other := services.NewResetTokenIssuer("another_secret", 600*time.Second)

	token, err := other.Issue(42)
	require.NoError(t, err)

	_, ok := issuer.Verify(token)
	assert.False(t, ok)
}

func TestResetTokenIssuer_MalformedInput(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)

	for _, tokenString := range []string{
		"",
		"not-a-token",
		"a.b.c",
		strings.Repeat("x", 500),
	} {
		_, ok := issuer.Verify(tokenString)
		assert.False(t, ok, "token %q must not verify", tokenString)
	}
}

func TestResetTokenIssuer_RejectsUnsignedToken(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"reset_password": 42,
		"exp":            time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := issuer.Verify(token)
	assert.False(t, ok)
}

func TestResetTokenIssuer_WireFormat(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 600*time.Second)
	now := time.Now()

	tokenString, err := issuer.IssueAt(7, now)
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(tokenSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(7), claims["reset_password"])
	assert.Equal(t, float64(now.Add(600*time.Second).Unix()), claims["exp"])
	assert.Equal(t, "HS256", token.Header["alg"])
}

func TestResetTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := services.NewResetTokenIssuer(tokenSecret, 0)
	now := time.Now()

	token, err := issuer.IssueAt(1, now)
	require.NoError(t, err)

	_, ok := issuer.VerifyAt(token, now.Add(services.DefaultResetTokenTTL-time.Second))
	assert.True(t, ok)
	_, ok = issuer.VerifyAt(token, now.Add(services.DefaultResetTokenTTL+time.Second))
	assert.False(t, ok)
}
