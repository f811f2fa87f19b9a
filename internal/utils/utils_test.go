package utils_test

import (
	"testing"

	"github.com/SscSPs/pix_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
	a, err := utils.NewSessionToken(32)
	require.NoError(t, err)
	b, err := utils.NewSessionToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	_, err = utils.NewSessionToken(0)
	assert.Error(t, err)
}

func TestHashAndCheckSecret(t *testing.T) {
	plain, err := utils.HashSecret(utils.SecretModePlain, "segredo123")
	require.NoError(t, err)
	assert.Equal(t, "segredo123", plain)
	assert.True(t, utils.CheckSecret("segredo123", plain))
	assert.False(t, utils.CheckSecret("segredo124", plain))

	hashed, err := utils.HashSecret(utils.SecretModeBcrypt, "segredo123")
	require.NoError(t, err)
	assert.NotEqual(t, "segredo123", hashed)
	assert.True(t, utils.CheckSecret("segredo123", hashed))
	assert.False(t, utils.CheckSecret("segredo124", hashed))

	_, err = utils.HashSecret("rot13", "segredo123")
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, utils.HashToken("abc"), utils.HashToken("abc"))
	assert.NotEqual(t, utils.HashToken("abc"), utils.HashToken("abd"))
	assert.Len(t, utils.HashToken("abc"), 64)
}
