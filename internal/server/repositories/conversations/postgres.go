package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const conversationColumns = `id, participant_low, participant_high, last_message_id, created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (*models.Conversation, error) {
	c := &models.Conversation{}
	var lastMessageID sql.NullString
	err := row.Scan(&c.ID, &c.ParticipantLow, &c.ParticipantHi, &lastMessageID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastMessageID.Valid {
		c.LastMessageID = &lastMessageID.String
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conversation) error {
	query := `INSERT INTO conversations (id, participant_low, participant_high)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, c.ID, c.ParticipantLow, c.ParticipantHi).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	c, err := scanConversation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByPair(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	low, high := models.NormalizePair(userA, userB)

	query := `SELECT ` + conversationColumns + ` FROM conversations
		 WHERE participant_low = $1 AND participant_high = $2`

	c, err := scanConversation(r.db.QueryRowContext(ctx, query, low, high))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		 WHERE participant_low = $1 OR participant_high = $1
		 ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	query := `UPDATE conversations SET last_message_id = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, conversationID, messageID)
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
