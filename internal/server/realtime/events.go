// Package realtime implements the websocket side of the relay: one
// authenticated connection per user, presence tracking, and at-most-once
// delivery of message, typing and read-receipt events to connected peers.
// Offline recipients are never queued for; they catch up over the history
// endpoint.
package realtime

import (
	"encoding/json"
	"time"
)

// Client-to-server event names.
const (
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventMessageSeen = "messageSeen"
)

// Server-to-client event names.
const (
	EventReceiveMessage      = "receiveMessage"
	EventUserTyping          = "userTyping"
	EventUserStoppedTyping   = "userStoppedTyping"
	EventUserOnline          = "userOnline"
	EventUserOffline         = "userOffline"
	EventMessageMarkedAsSeen = "messageMarkedAsSeen"
	EventError               = "error"
)

// Envelope is the wire frame for every websocket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an Envelope. Marshal errors are returned to
// the caller; data is always a struct under our control so they indicate a
// programming error.
func NewEnvelope(event string, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: raw}, nil
}

// TypingEvent is the inbound payload of typing / stopTyping.
type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	To             string `json:"receiverId"`
}

// TypingNotice is the outbound payload of userTyping / userStoppedTyping.
type TypingNotice struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MessageSeenEvent is the inbound payload of messageSeen. SenderID is
// advisory; the notified sender is always taken from the stored record.
type MessageSeenEvent struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

// SeenNotice is the outbound payload of messageMarkedAsSeen, sent to the
// original sender.
type SeenNotice struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	SeenAt         time.Time `json:"seenAt"`
}

// PresenceNotice is the outbound payload of userOnline / userOffline.
type PresenceNotice struct {
	UserID string `json:"userId"`
}

// ErrorNotice is the outbound payload of error events.
type ErrorNotice struct {
	Message string `json:"message"`
}
