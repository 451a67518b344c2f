package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/dbx"
	"github.com/techconhub/messaging/internal/server/models"
)

// PostgresRepository implements Repository using a DBTX
// (either *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, content, message_type,
		encrypted_media_url, media_iv, original_file_name, media_mime_type,
		is_encrypted, is_media_encrypted, seen, seen_at, edited, edited_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var seenAt, editedAt sql.NullTime
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type,
		&m.EncryptedMediaURL, &m.MediaIV, &m.OriginalFileName, &m.MediaMimeType,
		&m.IsEncrypted, &m.IsMediaEncrypted, &m.Seen, &seenAt, &m.Edited, &editedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if seenAt.Valid {
		m.SeenAt = &seenAt.Time
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, message_type,
			encrypted_media_url, media_iv, original_file_name, media_mime_type,
			is_encrypted, is_media_encrypted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Content, m.Type,
		m.EncryptedMediaURL, m.MediaIV, m.OriginalFileName, m.MediaMimeType,
		m.IsEncrypted, m.IsMediaEncrypted).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListPage(ctx context.Context, conversationID string, limit, offset int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		 WHERE conversation_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, conversationID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) MarkSeen(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE messages SET seen = TRUE, seen_at = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkConversationSeen(ctx context.Context, conversationID, receiverID string, at time.Time) error {
	query := `UPDATE messages SET seen = TRUE, seen_at = $3
		 WHERE conversation_id = $1 AND receiver_id = $2 AND seen = FALSE`

	if _, err := r.db.ExecContext(ctx, query, conversationID, receiverID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id, content string, isEncrypted bool, at time.Time) error {
	query := `UPDATE messages SET content = $2, is_encrypted = $3, edited = TRUE, edited_at = $4
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, content, isEncrypted, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}
