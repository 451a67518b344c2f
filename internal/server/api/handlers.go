// Package api exposes the relay's HTTP surface: conversation and message
// operations, encrypted media upload, and the websocket endpoint. Every
// route except the websocket handshake authenticates via bearer token.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/logging"
	sc "github.com/techconhub/messaging/internal/server/config"
	"github.com/techconhub/messaging/internal/server/models"
	"github.com/techconhub/messaging/internal/server/services"
)

// MessageAPI is the slice of the message service the HTTP layer consumes.
type MessageAPI interface {
	GetOrCreateConversation(ctx context.Context, userID, otherID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*models.ConversationView, error)
	GetMessages(ctx context.Context, userID, conversationID string, page, limit int) (*services.MessagePage, error)
	Send(ctx context.Context, senderID string, req *services.SendMessageRequest) (*models.Message, error)
	MarkMessageSeen(ctx context.Context, userID, messageID string) (*models.Message, error)
	MarkConversationSeen(ctx context.Context, userID, conversationID string) error
	Edit(ctx context.Context, userID, messageID, content string, isEncrypted bool) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID string) error
}

// MediaAPI stores encrypted blobs.
type MediaAPI interface {
	UploadEncrypted(ctx context.Context, blob []byte, iv, originalName, mimeType string) (*services.EncryptedMediaResult, error)
}

// Handlers bundles the HTTP endpoints with their dependencies.
type Handlers struct {
	messages MessageAPI
	media    MediaAPI
	config   *sc.Config
	logger   logging.Logger
}

// NewHandlers constructs the endpoint set.
func NewHandlers(messages MessageAPI, media MediaAPI, config *sc.Config, logger logging.Logger) *Handlers {
	return &Handlers{
		messages: messages,
		media:    media,
		config:   config,
		logger:   logger.With("component", "api"),
	}
}

// GetOrCreateConversation handles POST /conversation/{userId}.
func (h *Handlers) GetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	otherID := r.PathValue("userId")

	conv, err := h.messages.GetOrCreateConversation(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &models.ConversationView{
		ID:           conv.ID,
		Participants: conv.Participants(),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	})
}

// ListConversations handles GET /conversations.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	views, err := h.messages.ListConversations(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetMessages handles GET /conversation/{conversationId}/messages.
func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	conversationID := r.PathValue("conversationId")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.messages.GetMessages(r.Context(), userID, conversationID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SendMessage handles POST /send.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req services.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkMessageSeen handles PUT /message/{messageId}/seen.
func (h *Handlers) MarkMessageSeen(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	messageID := r.PathValue("messageId")

	msg, err := h.messages.MarkMessageSeen(r.Context(), userID, messageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// MarkConversationSeen handles PUT /conversation/{conversationId}/seen.
func (h *Handlers) MarkConversationSeen(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	conversationID := r.PathValue("conversationId")

	if err := h.messages.MarkConversationSeen(r.Context(), userID, conversationID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type editMessageRequest struct {
	Content     string `json:"content"`
	IsEncrypted bool   `json:"isEncrypted"`
}

// EditMessage handles PUT /{messageId}.
func (h *Handlers) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	messageID := r.PathValue("messageId")

	var req editMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.messages.Edit(r.Context(), userID, messageID, req.Content, req.IsEncrypted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessage handles DELETE /{messageId}.
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	messageID := r.PathValue("messageId")

	if err := h.messages.Delete(r.Context(), userID, messageID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadEncryptedMedia handles POST /upload/encrypted-media. The multipart
// form carries the ciphertext under "media" plus iv, originalName and
// mimeType fields. The blob is stored exactly as received.
func (h *Handlers) UploadEncryptedMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MediaMaxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	file, _, err := r.FormFile("media")
	if err != nil {
		writeError(w, fmt.Errorf("%w: missing media file", common.ErrorValidation))
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}

	iv := r.FormValue("iv")
	if iv == "" {
		writeError(w, fmt.Errorf("%w: missing iv", common.ErrorValidation))
		return
	}

	res, err := h.media.UploadEncrypted(r.Context(), blob, iv,
		r.FormValue("originalName"), r.FormValue("mimeType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// OnlineUsers handles GET /online: a snapshot of currently connected users.
func (h *Handlers) OnlineUsers(online func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := online()
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"online": ids})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json body", common.ErrorValidation)
	}
	return nil
}
