// Package models defines the persisted messaging entities. Message content
// is opaque to the server: when IsEncrypted is set it is
// base64(nonce || ciphertext || tag) produced on the sender's device.
package models

import "time"

// MessageType classifies a message payload.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
)

// Valid reports whether t is one of the supported types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo:
		return true
	}
	return false
}

// IsMedia reports whether the type carries a media attachment.
func (t MessageType) IsMedia() bool {
	return t == MessageTypeImage || t == MessageTypeVideo
}

// Message is one direct message within a conversation. ReceiverID is derived
// at send time as "the other participant" and denormalized for inbox lookups.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	ReceiverID     string      `json:"receiverId"`
	Content        string      `json:"content"`
	Type           MessageType `json:"messageType"`

	// Media fields, set only for image/video messages. EncryptedMediaURL
	// points at raw ciphertext bytes; MediaIV is the base64 nonce needed to
	// decrypt them client-side.
	EncryptedMediaURL string `json:"encryptedMediaUrl,omitempty"`
	MediaIV           string `json:"mediaIv,omitempty"`
	OriginalFileName  string `json:"originalFileName,omitempty"`
	MediaMimeType     string `json:"mediaMimeType,omitempty"`

	// The flags are the sole signal for whether clients should attempt
	// decryption of content / media.
	IsEncrypted      bool `json:"isEncrypted"`
	IsMediaEncrypted bool `json:"isMediaEncrypted"`

	Seen   bool       `json:"seen"`
	SeenAt *time.Time `json:"seenAt,omitempty"`

	Edited   bool       `json:"edited"`
	EditedAt *time.Time `json:"editedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
