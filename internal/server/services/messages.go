// Package services contains the relay server's business logic: conversation
// lifecycle, message persistence with participant/sender/receiver
// authorization, and the encrypted-media storage sink.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/dbx"
	"github.com/techconhub/messaging/internal/server/models"
	"github.com/techconhub/messaging/internal/server/repositories/repomanager"
)

// SendMessageRequest is the payload of a send operation. Content is opaque
// ciphertext whenever IsEncrypted is set.
type SendMessageRequest struct {
	ConversationID    string             `json:"conversationId"`
	Content           string             `json:"content"`
	Type              models.MessageType `json:"messageType"`
	EncryptedMediaURL string             `json:"encryptedMediaUrl"`
	MediaIV           string             `json:"mediaIv"`
	OriginalFileName  string             `json:"originalFileName"`
	MediaMimeType     string             `json:"mediaMimeType"`
	IsEncrypted       bool               `json:"isEncrypted"`
	IsMediaEncrypted  bool               `json:"isMediaEncrypted"`
}

// MessagePage is one page of chronological history.
type MessagePage struct {
	Messages    []*models.Message `json:"messages"`
	CurrentPage int               `json:"currentPage"`
	TotalPages  int               `json:"totalPages"`
	Total       int64             `json:"total"`
}

// MessageService implements the relay store contract: it validates
// participants, derives receivers, and persists records without ever
// interpreting ciphertext.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewMessageService constructs a MessageService over the given pool.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// GetOrCreateConversation returns the conversation between userID and
// otherID, lazily creating it on first contact. Lookup-before-create; the
// unique pair index resolves the (rare) create race by failing the loser,
// which is retried as a lookup.
func (s *MessageService) GetOrCreateConversation(ctx context.Context, userID, otherID string) (*models.Conversation, error) {
	if otherID == "" || otherID == userID {
		return nil, fmt.Errorf("%w: invalid peer", common.ErrorValidation)
	}

	repo := s.repomanager.Conversations(s.db)

	conv, err := repo.GetByPair(ctx, userID, otherID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	low, high := models.NormalizePair(userID, otherID)
	conv = &models.Conversation{ID: uuid.NewString(), ParticipantLow: low, ParticipantHi: high}

	if err := repo.Create(ctx, conv); err != nil {
		// lost the creation race: the other participant's insert won
		if existing, lookupErr := repo.GetByPair(ctx, userID, otherID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the caller's conversations, most recent first,
// with a preview derived from the last message type only. Ciphertext is
// never inspected, so a text message previews as a generic encrypted marker.
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]*models.ConversationView, error) {
	convRepo := s.repomanager.Conversations(s.db)
	msgRepo := s.repomanager.Messages(s.db)

	convs, err := convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ConversationView, 0, len(convs))
	for _, c := range convs {
		view := &models.ConversationView{
			ID:                 c.ID,
			Participants:       c.Participants(),
			LastMessagePreview: "New message",
			CreatedAt:          c.CreatedAt,
			UpdatedAt:          c.UpdatedAt,
		}
		if c.LastMessageID != nil {
			last, err := msgRepo.GetByID(ctx, *c.LastMessageID)
			if err == nil {
				view.LastMessage = last
				view.LastMessagePreview = previewFor(last.Type)
			} else if !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func previewFor(t models.MessageType) string {
	switch t {
	case models.MessageTypeImage:
		return "📷 Photo"
	case models.MessageTypeVideo:
		return "🎥 Video"
	case models.MessageTypeText:
		return "🔒 Encrypted message"
	}
	return "New message"
}

// GetMessages returns one page of conversation history. Storage order is
// newest-first; the page is re-reversed so callers receive chronological
// order. Only participants may read.
func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID string, page, limit int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, common.ErrorForbidden
	}

	msgRepo := s.repomanager.Messages(s.db)

	msgs, err := msgRepo.ListPage(ctx, conversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := msgRepo.Count(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	// newest-first -> chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &MessagePage{
		Messages:    msgs,
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
	}, nil
}

// Send validates and persists a message, deriving the receiver as "the other
// participant", and atomically points the conversation at its new last
// message. The stored record is returned for relaying.
func (s *MessageService) Send(ctx context.Context, senderID string, req *SendMessageRequest) (*models.Message, error) {
	if req.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", common.ErrorValidation)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: message content is required", common.ErrorValidation)
	}
	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", common.ErrorValidation, req.Type)
	}
	if req.IsMediaEncrypted && (req.EncryptedMediaURL == "" || req.MediaIV == "") {
		return nil, fmt.Errorf("%w: encrypted media requires url and iv", common.ErrorValidation)
	}
	if req.IsMediaEncrypted && !msgType.IsMedia() {
		return nil, fmt.Errorf("%w: media payload on a text message", common.ErrorValidation)
	}

	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, common.ErrorForbidden
	}

	msg := &models.Message{
		ID:                uuid.NewString(),
		ConversationID:    conv.ID,
		SenderID:          senderID,
		ReceiverID:        conv.OtherParticipant(senderID),
		Content:           req.Content,
		Type:              msgType,
		EncryptedMediaURL: req.EncryptedMediaURL,
		MediaIV:           req.MediaIV,
		OriginalFileName:  req.OriginalFileName,
		MediaMimeType:     req.MediaMimeType,
		IsEncrypted:       req.IsEncrypted,
		IsMediaEncrypted:  req.IsMediaEncrypted,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Messages(tx).Create(ctx, msg); err != nil {
			return err
		}
		return s.repomanager.Conversations(tx).SetLastMessage(ctx, conv.ID, msg.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error persisting message: %w", err)
	}

	return msg, nil
}

// MarkMessageSeen stamps one message as seen. Only the receiver may do so.
func (s *MessageService) MarkMessageSeen(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msgRepo := s.repomanager.Messages(s.db)

	msg, err := msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != userID {
		return nil, common.ErrorForbidden
	}

	now := time.Now().UTC()
	if err := msgRepo.MarkSeen(ctx, messageID, now); err != nil {
		return nil, err
	}

	msg.Seen = true
	msg.SeenAt = &now
	return msg, nil
}

// MarkConversationSeen stamps every unseen message addressed to the caller
// within the conversation. Only participants may do so.
func (s *MessageService) MarkConversationSeen(ctx context.Context, userID, conversationID string) error {
	conv, err := s.repomanager.Conversations(s.db).GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return common.ErrorForbidden
	}

	return s.repomanager.Messages(s.db).MarkConversationSeen(ctx, conversationID, userID, time.Now().UTC())
}

// Edit replaces a message's content. Only the original sender may edit; the
// encryption flag travels with the new content since the editing client
// re-encrypts.
func (s *MessageService) Edit(ctx context.Context, userID, messageID, content string, isEncrypted bool) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", common.ErrorValidation)
	}

	msgRepo := s.repomanager.Messages(s.db)

	msg, err := msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, common.ErrorForbidden
	}

	now := time.Now().UTC()
	if err := msgRepo.UpdateContent(ctx, messageID, content, isEncrypted, now); err != nil {
		return nil, err
	}

	msg.Content = content
	msg.IsEncrypted = isEncrypted
	msg.Edited = true
	msg.EditedAt = &now
	return msg, nil
}

// Delete removes a message. Only the original sender may delete.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	msgRepo := s.repomanager.Messages(s.db)

	msg, err := msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return common.ErrorForbidden
	}

	return msgRepo.Delete(ctx, messageID)
}
