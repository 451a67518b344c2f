// Package keystore manages the per-conversation symmetric keys on the client
// device: generation, durable SQLite persistence, retrieval and
// password-protected export/import for backup. Keys are stored locally only
// and are never transmitted to the server.
package keystore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/cryptox"
	"github.com/techconhub/messaging/internal/keystore/migrations"
)

// Store is the durable client-side key store, one row per conversation.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to an already-migrated database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the key database at dsn and applies
// pending migrations. The caller owns closing the returned Store's database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("key db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("goose dialect error: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("key db migration error: %w", err)
	}

	return NewStore(db), nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Persist writes the key for conversationID only if no key is stored yet:
// two racing first-accesses resolve deterministically to the first writer.
// Persisting over an existing row is a silent no-op; use Retrieve afterwards
// to learn which key actually won.
func (s *Store) Persist(ctx context.Context, conversationID string, key []byte) error {
	if err := cryptox.ValidateKey(key); err != nil {
		return err
	}

	query := `INSERT INTO conversation_keys (conversation_id, key_base64)
			VALUES (?, ?)
			ON CONFLICT(conversation_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, conversationID, base64.StdEncoding.EncodeToString(key))
	if err != nil {
		return fmt.Errorf("failed to persist key: %w", err)
	}
	return nil
}

// Retrieve returns the stored key for conversationID.
//
// An absent key yields common.ErrKeyNotFound. Stored data that does not
// decode to exactly 32 bytes yields common.ErrKeyCorrupted — callers must
// treat that as unrecoverable without a backup and must not regenerate.
func (s *Store) Retrieve(ctx context.Context, conversationID string) ([]byte, error) {
	query := `SELECT key_base64 FROM conversation_keys WHERE conversation_id = ?`

	var encoded string
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.ErrKeyCorrupted
	}
	if len(key) != cryptox.KeySize {
		return nil, common.ErrKeyCorrupted
	}
	return key, nil
}

// GetOrCreate is the single entry point used by messaging flows: it returns
// the existing key or lazily generates, persists and returns a new one.
// Corruption is passed through, never papered over with a fresh key.
func (s *Store) GetOrCreate(ctx context.Context, conversationID string) ([]byte, error) {
	key, err := s.Retrieve(ctx, conversationID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, common.ErrKeyNotFound) {
		return nil, err
	}

	if err := s.Persist(ctx, conversationID, cryptox.GenerateKey()); err != nil {
		return nil, err
	}

	// re-read so a concurrent first writer wins
	return s.Retrieve(ctx, conversationID)
}

// Has reports whether a well-formed key exists for conversationID. A UI can
// use this to warn before the first message in a conversation whose key has
// not been shared yet.
func (s *Store) Has(ctx context.Context, conversationID string) (bool, error) {
	_, err := s.Retrieve(ctx, conversationID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// all returns every stored entry as conversationID -> base64 key, the exact
// encoding serialized into backups.
func (s *Store) all(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT conversation_id, key_base64 FROM conversation_keys`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var id, encoded string
		if err := rows.Scan(&id, &encoded); err != nil {
			return nil, err
		}
		keys[id] = encoded
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
