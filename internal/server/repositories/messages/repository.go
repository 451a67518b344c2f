package messages

import (
	"context"
	"time"

	"github.com/techconhub/messaging/internal/server/models"
)

// Repository describes persistence operations for messages. Content is stored
// verbatim; the server never interprets ciphertext.
type Repository interface {
	// Create inserts a new message row.
	Create(ctx context.Context, m *models.Message) error

	// GetByID returns a message by id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListPage returns one page of a conversation's messages, newest first
	// (callers re-reverse to chronological order).
	ListPage(ctx context.Context, conversationID string, limit, offset int) ([]*models.Message, error)

	// Count returns the total number of messages in a conversation.
	Count(ctx context.Context, conversationID string) (int64, error)

	// MarkSeen stamps a single message as seen.
	MarkSeen(ctx context.Context, id string, at time.Time) error

	// MarkConversationSeen stamps every unseen message addressed to
	// receiverID within the conversation.
	MarkConversationSeen(ctx context.Context, conversationID, receiverID string, at time.Time) error

	// UpdateContent replaces content (and its encryption flag) and stamps the
	// edit time. Only the service layer checks sender identity.
	UpdateContent(ctx context.Context, id, content string, isEncrypted bool, at time.Time) error

	// Delete removes a message row.
	Delete(ctx context.Context, id string) error
}
