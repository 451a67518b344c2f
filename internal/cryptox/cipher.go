package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"

	"github.com/techconhub/messaging/internal/common"
)

func newAEAD(key []byte) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptText encrypts plaintext under the conversation key and returns the
// wire form base64(nonce || ciphertext || tag). A fresh random 12-byte nonce
// is generated per call; it is never reused for a given key. Empty plaintext
// is valid and encrypts to nonce+tag only.
func EncryptText(plaintext, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(NonceSize)
	sealed := aead.Seal(nil, nonce, plaintext, nil)

	combined := make([]byte, 0, len(nonce)+len(sealed))
	combined = append(combined, nonce...)
	combined = append(combined, sealed...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptText reverses EncryptText. Any failure — undecodable base64, a blob
// shorter than the nonce, a wrong key, or a tampered ciphertext — yields
// common.ErrDecryptionFailed without distinguishing the cause. The rendering
// layer maps that error to a placeholder; it never reaches the UI as a crash.
func DecryptText(blob string, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	combined, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	if len(combined) < NonceSize {
		return nil, common.ErrDecryptionFailed
	}

	nonce, sealed := combined[:NonceSize], combined[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}
