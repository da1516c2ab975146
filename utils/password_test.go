package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	defer func() { BcryptCost = 12 }()

	hash, err := HashPassword("motdepasse-admin")
	require.NoError(t, err)
	assert.NotEqual(t, "motdepasse-admin", hash)

	assert.True(t, CheckPassword(hash, "motdepasse-admin"))
	assert.False(t, CheckPassword(hash, "mauvais"))
	assert.False(t, CheckPassword(hash, ""))
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("court")
	assert.True(t, IsValidation(err))
}
