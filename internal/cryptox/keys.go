// Package cryptox implements the symmetric encryption primitives of the
// messaging core: AES-256-GCM for message text and media payloads, and a
// PBKDF2 wrapping key for key backups. Keys themselves never leave the
// client process unencrypted; the only server-visible artifact is ciphertext.
package cryptox

import (
	"github.com/techconhub/messaging/internal/common"
)

const (
	// KeySize is the conversation key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// SaltSize is the backup KDF salt length in bytes.
	SaltSize = 16
)

// GenerateKey returns fresh cryptographically-random AES-256 key material.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// ValidateKey rejects key material of the wrong length. Wrong-size keys must
// fail at import time, not at cipher time.
func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return common.ErrInvalidKeySize
	}
	return nil
}
