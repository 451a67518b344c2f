package cryptox

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techconhub/messaging/internal/common"
)

func TestEncryptMedia_RoundTrip(t *testing.T) {
	key := GenerateKey()

	// 2MB of pseudo-random "image" bytes
	data := make([]byte, 2*1024*1024)
	_, err := rand.New(rand.NewSource(1)).Read(data)
	require.NoError(t, err)

	ciphertext, nonce, err := EncryptMedia(data, key)
	require.NoError(t, err)
	require.Len(t, nonce, NonceSize)
	assert.NotEqual(t, data[:64], ciphertext[:64])

	got, err := DecryptMedia(ciphertext, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecryptMedia_Failures(t *testing.T) {
	key := GenerateKey()

	ciphertext, nonce, err := EncryptMedia([]byte("clip"), key)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := DecryptMedia(ciphertext, nonce, GenerateKey())
		assert.ErrorIs(t, err, common.ErrDecryptionFailed)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[0] ^= 0xFF
		_, err := DecryptMedia(tampered, nonce, key)
		assert.ErrorIs(t, err, common.ErrDecryptionFailed)
	})

	t.Run("wrong nonce length", func(t *testing.T) {
		_, err := DecryptMedia(ciphertext, nonce[:8], key)
		assert.ErrorIs(t, err, common.ErrDecryptionFailed)
	})
}

func TestDeriveBackupKey_Deterministic(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := GenerateSalt()

	k1 := DeriveBackupKey(password, salt)
	k2 := DeriveBackupKey(password, salt)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeySize)
}

func TestDeriveBackupKey_DifferentInputs(t *testing.T) {
	password := []byte("correct horse battery staple")

	k1 := DeriveBackupKey(password, []byte("salt-1"))
	k2 := DeriveBackupKey(password, []byte("salt-2"))
	assert.NotEqual(t, k1, k2)

	k3 := DeriveBackupKey([]byte("other password"), []byte("salt-1"))
	assert.NotEqual(t, k1, k3)
}
