// Package common defines shared constants and sentinel errors used across
// client and server layers of the messaging core. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Cipher errors. Decryption failure covers truncated input, wrong key
	// and tag mismatch alike; callers never see which.
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidKeySize   = errors.New("invalid key size")

	// Key store errors. ErrKeyCorrupted is distinct from ErrKeyNotFound:
	// a corrupted key must never be silently regenerated, because that
	// would orphan all history encrypted under the old key.
	ErrKeyNotFound  = errors.New("conversation key not found")
	ErrKeyCorrupted = errors.New("conversation key corrupted")

	// Backup errors.
	ErrWrongBackupPassword = errors.New("wrong backup password")
	ErrMalformedBackup     = errors.New("malformed backup payload")
)
