package conversations

import (
	"context"

	"github.com/techconhub/messaging/internal/server/models"
)

// Repository describes persistence operations for conversations.
type Repository interface {
	// Create inserts a new conversation row.
	Create(ctx context.Context, c *models.Conversation) error

	// GetByID returns a conversation by id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Conversation, error)

	// GetByPair returns the conversation for an unordered user pair,
	// or common.ErrorNotFound.
	GetByPair(ctx context.Context, userA, userB string) (*models.Conversation, error)

	// ListForUser returns all conversations userID participates in,
	// most recently updated first.
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)

	// SetLastMessage points the conversation at its most recent message and
	// bumps updated_at.
	SetLastMessage(ctx context.Context, conversationID, messageID string) error
}
