package keystore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/cryptox"
	"github.com/techconhub/messaging/internal/dbx"
)

// Backup is the password-wrapped export of the whole key store.
// Data decrypts to a JSON map of conversationID -> base64 key.
type Backup struct {
	Salt string `json:"salt"`
	IV   string `json:"iv"`
	Data string `json:"data"`
}

// Export serializes every stored key and encrypts the result with a key
// derived from password via PBKDF2 under a fresh random salt. The caller is
// responsible for storing the returned blob (file, clipboard, cloud).
func (s *Store) Export(ctx context.Context, password []byte) (*Backup, error) {
	keys, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("backup serialization error: %w", err)
	}

	salt := cryptox.GenerateSalt()
	wrappingKey := cryptox.DeriveBackupKey(password, salt)

	ciphertext, nonce, err := cryptox.EncryptMedia(plaintext, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("backup encryption error: %w", err)
	}

	return &Backup{
		Salt: base64.StdEncoding.EncodeToString(salt),
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Data: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Import decrypts a backup and restores every contained key, overwriting
// local entries for the same conversations. A wrong password surfaces as
// common.ErrWrongBackupPassword (AEAD tag check), a structurally bad payload
// as common.ErrMalformedBackup. Nothing is written unless the whole payload
// validates: partial imports would be worse than a failed one.
func (s *Store) Import(ctx context.Context, b *Backup, password []byte) error {
	salt, err := base64.StdEncoding.DecodeString(b.Salt)
	if err != nil {
		return common.ErrMalformedBackup
	}
	nonce, err := base64.StdEncoding.DecodeString(b.IV)
	if err != nil {
		return common.ErrMalformedBackup
	}
	ciphertext, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return common.ErrMalformedBackup
	}

	wrappingKey := cryptox.DeriveBackupKey(password, salt)

	plaintext, err := cryptox.DecryptMedia(ciphertext, nonce, wrappingKey)
	if err != nil {
		return common.ErrWrongBackupPassword
	}

	var keys map[string]string
	if err := json.Unmarshal(plaintext, &keys); err != nil {
		return common.ErrMalformedBackup
	}

	// validate every entry before touching the store
	decoded := make(map[string][]byte, len(keys))
	for id, encoded := range keys {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(key) != cryptox.KeySize {
			return common.ErrMalformedBackup
		}
		decoded[id] = key
	}

	query := `INSERT INTO conversation_keys (conversation_id, key_base64)
			VALUES (?, ?)
			ON CONFLICT(conversation_id) DO UPDATE SET key_base64 = excluded.key_base64`

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for id, key := range decoded {
			if _, err := tx.ExecContext(ctx, query, id, base64.StdEncoding.EncodeToString(key)); err != nil {
				return fmt.Errorf("failed to restore key: %w", err)
			}
		}
		return nil
	})
}
