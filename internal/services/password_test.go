package services_test

import (
	"testing"

	"servicestation/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := services.NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Password1!", hash)

	assert.True(t, hasher.Verify("Password1!", hash))
	assert.False(t, hasher.Verify("Password2!", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestPasswordHasher_SaltRandomness(t *testing.T) {
	hasher := services.NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	second, err := hasher.Hash("Password1!")
	require.NoError(t, err)

	// A fresh salt per call means two hashes of the same input never match.
	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("Password1!", first))
	assert.True(t, hasher.Verify("Password1!", second))
}

func TestPasswordHasher_MalformedStoredHash(t *testing.T) {
	hasher := services.NewPasswordHasher(bcrypt.MinCost)

	assert.False(t, hasher.Verify("Password1!", ""))
	assert.False(t, hasher.Verify("Password1!", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("Password1!", "$2a$xx$garbage"))
}

func TestNewPasswordHasher_CostClamping(t *testing.T) {
	hasher := services.NewPasswordHasher(99)

	hash, err := hasher.Hash("Password1!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
