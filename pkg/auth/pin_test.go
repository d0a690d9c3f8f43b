package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIsValidPin(t *testing.T) {
	assert.True(t, IsValidPin("012345"))
	assert.False(t, IsValidPin("12345"))
	assert.False(t, IsValidPin("1234567"))
	assert.False(t, IsValidPin("12a456"))
	assert.False(t, IsValidPin("１２３４５６"))
	assert.False(t, IsValidPin(""))
}

func TestHashAndCheck(t *testing.T) {
	hash, err := hashPinWithCost("424242", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, hash, "424242")

	assert.True(t, CheckPinHash("424242", hash))
	assert.False(t, CheckPinHash("424243", hash))
}

func TestHashPin_RejectsMalformed(t *testing.T) {
	_, err := HashPin("abc")
	assert.ErrorIs(t, err, ErrMalformedPin)
}

func TestCheckPinHash_MissingOrBrokenHash(t *testing.T) {
	assert.False(t, CheckPinHash("424242", ""))
	assert.False(t, CheckPinHash("424242", "not-a-bcrypt-hash"))
}
