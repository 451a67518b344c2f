package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/techconhub/messaging/internal/common"
)

// kdfIterations matches the backup format: PBKDF2-SHA256 with 100k rounds.
// Changing it breaks compatibility with previously exported backups.
const kdfIterations = 100_000

// DeriveBackupKey stretches a user password into an AES-256 wrapping key for
// key-store backups. Deterministic for a given (password, salt) pair, so the
// importing device reconstructs the exact same key.
func DeriveBackupKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, kdfIterations, KeySize, sha256.New)
}

// GenerateSalt returns a fresh random salt for DeriveBackupKey.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}
