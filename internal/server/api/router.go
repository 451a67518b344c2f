package api

import (
	"net/http"

	"github.com/techconhub/messaging/internal/server/realtime"
)

// NewRouter assembles the full HTTP surface. The websocket endpoint does its
// own token check (query parameter, not header) and therefore sits outside
// the auth middleware.
func NewRouter(h *Handlers, hub *realtime.Hub) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /conversation/{userId}", h.WithAuth(http.HandlerFunc(h.GetOrCreateConversation)))
	mux.Handle("GET /conversations", h.WithAuth(http.HandlerFunc(h.ListConversations)))
	mux.Handle("GET /conversation/{conversationId}/messages", h.WithAuth(http.HandlerFunc(h.GetMessages)))
	mux.Handle("PUT /conversation/{conversationId}/seen", h.WithAuth(http.HandlerFunc(h.MarkConversationSeen)))

	mux.Handle("POST /send", h.WithAuth(http.HandlerFunc(h.SendMessage)))
	mux.Handle("PUT /message/{messageId}/seen", h.WithAuth(http.HandlerFunc(h.MarkMessageSeen)))
	mux.Handle("PUT /{messageId}", h.WithAuth(http.HandlerFunc(h.EditMessage)))
	mux.Handle("DELETE /{messageId}", h.WithAuth(http.HandlerFunc(h.DeleteMessage)))

	mux.Handle("POST /upload/encrypted-media", h.WithAuth(http.HandlerFunc(h.UploadEncryptedMedia)))
	mux.Handle("GET /online", h.WithAuth(h.OnlineUsers(hub.OnlineUsers)))

	mux.Handle("GET /ws", hub.Handler(h.config.SecretKey))

	return mux
}
