package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/logging"
	"github.com/techconhub/messaging/internal/server/auth"
	sc "github.com/techconhub/messaging/internal/server/config"
	"github.com/techconhub/messaging/internal/server/models"
	"github.com/techconhub/messaging/internal/server/realtime"
	"github.com/techconhub/messaging/internal/server/services"
)

// -------- test fakes --------

type fakeMessageAPI struct {
	conv    *models.Conversation
	convErr error

	views    []*models.ConversationView
	viewsErr error

	page    *services.MessagePage
	pageErr error

	sent    *models.Message
	sendErr error
	sentReq *services.SendMessageRequest

	seenMsg *models.Message
	seenErr error

	convSeenErr error

	editMsg *models.Message
	editErr error

	deleteErr error
	deletedID string

	lastUserID string
}

func (f *fakeMessageAPI) GetOrCreateConversation(ctx context.Context, userID, otherID string) (*models.Conversation, error) {
	f.lastUserID = userID
	return f.conv, f.convErr
}

func (f *fakeMessageAPI) ListConversations(ctx context.Context, userID string) ([]*models.ConversationView, error) {
	f.lastUserID = userID
	return f.views, f.viewsErr
}

func (f *fakeMessageAPI) GetMessages(ctx context.Context, userID, conversationID string, page, limit int) (*services.MessagePage, error) {
	f.lastUserID = userID
	return f.page, f.pageErr
}

func (f *fakeMessageAPI) Send(ctx context.Context, senderID string, req *services.SendMessageRequest) (*models.Message, error) {
	f.lastUserID = senderID
	f.sentReq = req
	return f.sent, f.sendErr
}

func (f *fakeMessageAPI) MarkMessageSeen(ctx context.Context, userID, messageID string) (*models.Message, error) {
	f.lastUserID = userID
	return f.seenMsg, f.seenErr
}

func (f *fakeMessageAPI) MarkConversationSeen(ctx context.Context, userID, conversationID string) error {
	f.lastUserID = userID
	return f.convSeenErr
}

func (f *fakeMessageAPI) Edit(ctx context.Context, userID, messageID, content string, isEncrypted bool) (*models.Message, error) {
	f.lastUserID = userID
	return f.editMsg, f.editErr
}

func (f *fakeMessageAPI) Delete(ctx context.Context, userID, messageID string) error {
	f.lastUserID = userID
	f.deletedID = messageID
	return f.deleteErr
}

type fakeMediaAPI struct {
	res     *services.EncryptedMediaResult
	err     error
	gotBlob []byte
	gotIV   string
}

func (f *fakeMediaAPI) UploadEncrypted(ctx context.Context, blob []byte, iv, originalName, mimeType string) (*services.EncryptedMediaResult, error) {
	f.gotBlob = blob
	f.gotIV = iv
	return f.res, f.err
}

// -------- helpers --------

const apiTestSecret = "api-test-secret"

func newTestRouter(t *testing.T, messages *fakeMessageAPI, media *fakeMediaAPI) http.Handler {
	t.Helper()
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = apiTestSecret

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	h := NewHandlers(messages, media, cfg, logger)
	hub := realtime.NewHub(nil, logger)
	return NewRouter(h, hub)
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(apiTestSecret), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, router http.Handler, method, path, auth string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set(common.AccessTokenHeaderName, auth)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// -------- tests --------

func TestAuth_MissingAndInvalidToken(t *testing.T) {
	router := newTestRouter(t, &fakeMessageAPI{}, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodGet, "/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, "/conversations", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, "/conversations", "garbage-without-scheme", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	router := newTestRouter(t, &fakeMessageAPI{}, &fakeMediaAPI{})

	token, err := auth.GenerateToken("alice", []byte(apiTestSecret), -time.Minute)
	require.NoError(t, err)

	w := doRequest(t, router, http.MethodGet, "/conversations", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrCreateConversation(t *testing.T) {
	fake := &fakeMessageAPI{conv: &models.Conversation{ID: "c1", ParticipantLow: "alice", ParticipantHi: "bob"}}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodPost, "/conversation/bob", bearer(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", fake.lastUserID)

	var view models.ConversationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "c1", view.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, view.Participants)
}

func TestListConversations(t *testing.T) {
	fake := &fakeMessageAPI{views: []*models.ConversationView{
		{ID: "c1", LastMessagePreview: "🔒 Encrypted message"},
	}}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodGet, "/conversations", bearer(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []*models.ConversationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "🔒 Encrypted message", views[0].LastMessagePreview)
}

func TestGetMessages_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", common.ErrorNotFound, http.StatusNotFound},
		{"forbidden", common.ErrorForbidden, http.StatusForbidden},
		{"internal", common.ErrorInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMessageAPI{pageErr: tt.err}
			router := newTestRouter(t, fake, &fakeMediaAPI{})

			w := doRequest(t, router, http.MethodGet, "/conversation/c1/messages?page=1&limit=50", bearer(t, "alice"), nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestSendMessage(t *testing.T) {
	fake := &fakeMessageAPI{sent: &models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"}}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	body := strings.NewReader(`{"conversationId":"c1","content":"ciphertext","messageType":"text","isEncrypted":true}`)
	w := doRequest(t, router, http.MethodPost, "/send", bearer(t, "alice"), body)
	require.Equal(t, http.StatusCreated, w.Code)

	require.NotNil(t, fake.sentReq)
	assert.Equal(t, "c1", fake.sentReq.ConversationID)
	assert.True(t, fake.sentReq.IsEncrypted)

	var msg models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "m1", msg.ID)
}

func TestSendMessage_MalformedBody(t *testing.T) {
	router := newTestRouter(t, &fakeMessageAPI{}, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodPost, "/send", bearer(t, "alice"), strings.NewReader("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkSeen_SingleAndBulk(t *testing.T) {
	fake := &fakeMessageAPI{seenMsg: &models.Message{ID: "m1", Seen: true}}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodPut, "/message/m1/seen", bearer(t, "bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPut, "/conversation/c1/seen", bearer(t, "bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestEditAndDelete(t *testing.T) {
	fake := &fakeMessageAPI{editMsg: &models.Message{ID: "m1", Edited: true}}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	body := strings.NewReader(`{"content":"new-ciphertext","isEncrypted":true}`)
	w := doRequest(t, router, http.MethodPut, "/m1", bearer(t, "alice"), body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/m1", bearer(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", fake.deletedID)
}

func TestEditDelete_ForbiddenForNonSender(t *testing.T) {
	fake := &fakeMessageAPI{editErr: common.ErrorForbidden, deleteErr: common.ErrorForbidden}
	router := newTestRouter(t, fake, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodPut, "/m1", bearer(t, "mallory"), strings.NewReader(`{"content":"x"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/m1", bearer(t, "mallory"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadEncryptedMedia(t *testing.T) {
	media := &fakeMediaAPI{res: &services.EncryptedMediaResult{
		EncryptedURL: "https://s3.local/media/x", IV: "iv-b64",
		OriginalFileName: "photo.jpg", MimeType: "image/jpeg",
	}}
	router := newTestRouter(t, &fakeMessageAPI{}, media)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("media", "blob.bin")
	require.NoError(t, err)
	_, err = fw.Write([]byte("ciphertext-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("iv", "iv-b64"))
	require.NoError(t, mw.WriteField("originalName", "photo.jpg"))
	require.NoError(t, mw.WriteField("mimeType", "image/jpeg"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/encrypted-media", &buf)
	req.Header.Set(common.AccessTokenHeaderName, bearer(t, "alice"))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []byte("ciphertext-bytes"), media.gotBlob)
	assert.Equal(t, "iv-b64", media.gotIV)

	var res services.EncryptedMediaResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "https://s3.local/media/x", res.EncryptedURL)
}

func TestUploadEncryptedMedia_MissingIV(t *testing.T) {
	router := newTestRouter(t, &fakeMessageAPI{}, &fakeMediaAPI{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("media", "blob.bin")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/encrypted-media", &buf)
	req.Header.Set(common.AccessTokenHeaderName, bearer(t, "alice"))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnlineUsers_EmptySnapshot(t *testing.T) {
	router := newTestRouter(t, &fakeMessageAPI{}, &fakeMediaAPI{})

	w := doRequest(t, router, http.MethodGet, "/online", bearer(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"online":[]}`, w.Body.String())
}
