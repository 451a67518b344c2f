package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techconhub/messaging/internal/server/auth"
	"github.com/techconhub/messaging/internal/server/models"
	"github.com/techconhub/messaging/internal/server/services"
)

const testSecret = "handler-test-secret"

func newHandlerServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := newTestHub(&fakeStore{})
	srv := httptest.NewServer(h.Handler(testSecret))
	t.Cleanup(srv.Close)
	return h, srv
}

func wsURL(srv *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	_, srv := newHandlerServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	_, srv := newHandlerServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "garbage"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_ConnectsWithValidToken(t *testing.T) {
	h, srv := newHandlerServer(t)

	token, err := auth.GenerateToken("alice", []byte(testSecret), time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return h.presence.Online("alice")
	}, time.Second, 10*time.Millisecond)
}

// The handshake's request context dies the moment the handler returns; the
// persistence calls triggered by later frames must not inherit it.
func TestHandler_PersistsOnLiveContext(t *testing.T) {
	store := &fakeStore{
		sendMsg: &models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"},
		sendCtx: make(chan error, 1),
	}
	h := newTestHub(store)
	srv := httptest.NewServer(h.Handler(testSecret))
	t.Cleanup(srv.Close)

	token, err := auth.GenerateToken("alice", []byte(testSecret), time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Envelope{
		Event: EventSendMessage,
		Data:  rawJSON(t, services.SendMessageRequest{ConversationID: "c1", Content: "opaque", IsEncrypted: true}),
	}))

	select {
	case ctxErr := <-store.sendCtx:
		assert.NoError(t, ctxErr, "persistence ran on a dead context")
	case <-time.After(time.Second):
		t.Fatal("message was never handed to the store")
	}

	// the stored echo still comes back to the sender
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventReceiveMessage, env.Event)
}

func TestHandler_RelaysBetweenTwoConnections(t *testing.T) {
	h, srv := newHandlerServer(t)
	_ = h

	dial := func(user string) *websocket.Conn {
		token, err := auth.GenerateToken(user, []byte(testSecret), time.Minute)
		require.NoError(t, err)
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	alice := dial("alice")
	bob := dial("bob")

	// alice learns that bob came online
	alice.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := alice.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserOnline, env.Event)
	var notice PresenceNotice
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, "bob", notice.UserID)

	// bob types at alice
	require.NoError(t, bob.WriteJSON(Envelope{
		Event: EventTyping,
		Data:  rawJSON(t, TypingEvent{ConversationID: "c1", To: "alice"}),
	}))

	alice.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err = alice.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserTyping, env.Event)
}
