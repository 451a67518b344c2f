package cryptox

import (
	"github.com/techconhub/messaging/internal/common"
)

// EncryptMedia encrypts a raw binary payload (image or video bytes) under the
// conversation key. Unlike the text cipher, the nonce is returned separately:
// it travels as a sibling metadata field next to the uploaded ciphertext
// rather than being prepended to it.
func EncryptMedia(data, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)
	ciphertext = aead.Seal(nil, nonce, data, nil)

	return ciphertext, nonce, nil
}

// DecryptMedia reverses EncryptMedia. A wrong-length nonce, wrong key or
// tampered ciphertext yields common.ErrDecryptionFailed; the media path
// propagates this as a typed error so the caller can render an
// "unavailable" state.
func DecryptMedia(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, common.ErrDecryptionFailed
	}

	data, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return data, nil
}
