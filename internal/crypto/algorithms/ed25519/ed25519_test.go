package ed25519

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestED25519GenerateKeypair(t *testing.T) {
	provider := NewED25519Provider()
	seed := []byte("test seed for ed25519")

	privateKey, account, err := provider.GenerateKeypair(seed)
	require.NoError(t, err)

	raw, err := hex.DecodeString(privateKey)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, [32]byte{}, account)

	// Same seed, same keys.
	privateKey2, account2, err := provider.GenerateKeypair(seed)
	require.NoError(t, err)
	assert.Equal(t, privateKey, privateKey2)
	assert.Equal(t, account, account2)

	_, other, err := provider.GenerateKeypair([]byte("another seed"))
	require.NoError(t, err)
	assert.NotEqual(t, account, other)
}

func TestED25519SignAndVerify(t *testing.T) {
	provider := NewED25519Provider()
	message := []byte("test message")

	privateKey, account, err := provider.GenerateKeypair([]byte("test seed for ed25519"))
	require.NoError(t, err)

	signature, err := provider.SignMessage(message, privateKey)
	require.NoError(t, err)

	assert.True(t, provider.VerifySignature(message, account, signature))
	assert.False(t, provider.VerifySignature([]byte("wrong message"), account, signature))

	_, otherAccount, err := provider.GenerateKeypair([]byte("someone else"))
	require.NoError(t, err)
	assert.False(t, provider.VerifySignature(message, otherAccount, signature))
	assert.False(t, provider.VerifySignature(message, account, "zz"))
	assert.False(t, provider.VerifySignature(message, account, "ABCD"))
}

func TestED25519InvalidPrivateKey(t *testing.T) {
	provider := NewED25519Provider()

	_, err := provider.SignMessage([]byte("m"), "not hex")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = provider.SignMessage([]byte("m"), "ABCD")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}
