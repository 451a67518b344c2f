package common

import "crypto/rand"

// GenerateRandByteArray returns size cryptographically-random bytes.
// It panics if the system randomness source fails, which is not a
// recoverable condition for key or nonce generation.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
