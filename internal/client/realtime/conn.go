// Package realtime maintains the CLI's websocket connection to the relay:
// it delivers inbound message, typing, presence and read-receipt events to
// registered callbacks and emits the client-side events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/techconhub/messaging/internal/client/models"
	"github.com/techconhub/messaging/internal/common"
)

// Event names, mirroring the relay's websocket protocol.
const (
	eventSendMessage = "sendMessage"
	eventTyping      = "typing"
	eventStopTyping  = "stopTyping"
	eventMessageSeen = "messageSeen"

	eventReceiveMessage      = "receiveMessage"
	eventUserTyping          = "userTyping"
	eventUserStoppedTyping   = "userStoppedTyping"
	eventUserOnline          = "userOnline"
	eventUserOffline         = "userOffline"
	eventMessageMarkedAsSeen = "messageMarkedAsSeen"
	eventError               = "error"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type typingEvent struct {
	ConversationID string `json:"conversationId"`
	ReceiverID     string `json:"receiverId"`
}

type seenEvent struct {
	MessageID string `json:"messageId"`
}

type presenceNotice struct {
	UserID string `json:"userId"`
}

type typingNotice struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type seenNotice struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	SeenAt         time.Time `json:"seenAt"`
}

type errorNotice struct {
	Message string `json:"message"`
}

// Handlers are the callbacks invoked from the read loop. Nil callbacks are
// skipped. Callbacks run on the read goroutine and must not block.
type Handlers struct {
	OnMessage     func(msg *models.Message)
	OnTyping      func(conversationID, userID string)
	OnStopTyping  func(conversationID, userID string)
	OnUserOnline  func(userID string)
	OnUserOffline func(userID string)
	OnSeen        func(messageID, conversationID string, seenAt time.Time)
	OnError       func(message string)
}

// Conn is one live websocket connection.
type Conn struct {
	ws       *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex
}

// Dial connects to the relay's websocket endpoint. The access token travels
// as a query parameter, matching the server's handshake contract.
func Dial(ctx context.Context, baseURL, token string, handlers Handlers) (*Conn, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	q := u.Query()
	q.Set(common.AccessTokenQueryParam, token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return &Conn{ws: ws, handlers: handlers}, nil
}

// Listen runs the read loop until the connection closes or ctx is cancelled.
func (c *Conn) Listen(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	// the watcher must not outlive Listen when the read loop exits first
	go func() {
		select {
		case <-ctx.Done():
			c.ws.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		c.handle(&env)
	}
}

func (c *Conn) handle(env *envelope) {
	switch env.Event {
	case eventReceiveMessage:
		if c.handlers.OnMessage == nil {
			return
		}
		var msg models.Message
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handlers.OnMessage(&msg)
		}
	case eventUserTyping:
		c.notifyTyping(env.Data, c.handlers.OnTyping)
	case eventUserStoppedTyping:
		c.notifyTyping(env.Data, c.handlers.OnStopTyping)
	case eventUserOnline:
		c.notifyPresence(env.Data, c.handlers.OnUserOnline)
	case eventUserOffline:
		c.notifyPresence(env.Data, c.handlers.OnUserOffline)
	case eventMessageMarkedAsSeen:
		if c.handlers.OnSeen == nil {
			return
		}
		var n seenNotice
		if json.Unmarshal(env.Data, &n) == nil {
			c.handlers.OnSeen(n.MessageID, n.ConversationID, n.SeenAt)
		}
	case eventError:
		if c.handlers.OnError == nil {
			return
		}
		var n errorNotice
		if json.Unmarshal(env.Data, &n) == nil {
			c.handlers.OnError(n.Message)
		}
	}
}

func (c *Conn) notifyTyping(data json.RawMessage, fn func(conversationID, userID string)) {
	if fn == nil {
		return
	}
	var n typingNotice
	if json.Unmarshal(data, &n) == nil {
		fn(n.ConversationID, n.UserID)
	}
}

func (c *Conn) notifyPresence(data json.RawMessage, fn func(userID string)) {
	if fn == nil {
		return
	}
	var n presenceNotice
	if json.Unmarshal(data, &n) == nil {
		fn(n.UserID)
	}
}

// SendMessage emits a prepared (already encrypted) message record over the
// socket instead of POST /send.
func (c *Conn) SendMessage(req *models.SendMessageRequest) error {
	return c.emit(eventSendMessage, req)
}

// Typing signals that the user started typing to receiverID.
func (c *Conn) Typing(conversationID, receiverID string) error {
	return c.emit(eventTyping, typingEvent{ConversationID: conversationID, ReceiverID: receiverID})
}

// StopTyping signals that the user stopped typing.
func (c *Conn) StopTyping(conversationID, receiverID string) error {
	return c.emit(eventStopTyping, typingEvent{ConversationID: conversationID, ReceiverID: receiverID})
}

// MessageSeen reports that messageID was viewed.
func (c *Conn) MessageSeen(messageID string) error {
	return c.emit(eventMessageSeen, seenEvent{MessageID: messageID})
}

func (c *Conn) emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(envelope{Event: event, Data: raw})
}

// Close shuts the connection down.
func (c *Conn) Close() error {
	return c.ws.Close()
}
