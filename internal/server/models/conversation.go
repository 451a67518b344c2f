package models

import "time"

// Conversation links exactly two users. The pair is stored normalized
// (ParticipantLow < ParticipantHigh lexicographically) so one row exists per
// unordered pair; participants are immutable after creation.
type Conversation struct {
	ID             string    `json:"id"`
	ParticipantLow string    `json:"-"`
	ParticipantHi  string    `json:"-"`
	LastMessageID  *string   `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Participants returns both participant ids.
func (c *Conversation) Participants() []string {
	return []string{c.ParticipantLow, c.ParticipantHi}
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.ParticipantLow || userID == c.ParticipantHi
}

// OtherParticipant returns the peer of userID, or "" if userID is not a
// participant.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.ParticipantLow:
		return c.ParticipantHi
	case c.ParticipantHi:
		return c.ParticipantLow
	}
	return ""
}

// NormalizePair orders two user ids into (low, high) storage form.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// ConversationView is the API shape of a conversation: participants restored
// to a plain set plus a safe preview derived from the last message type only
// (content is ciphertext and is never inspected server-side).
type ConversationView struct {
	ID                 string    `json:"id"`
	Participants       []string  `json:"participants"`
	LastMessage        *Message  `json:"lastMessage,omitempty"`
	LastMessagePreview string    `json:"lastMessagePreview"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
