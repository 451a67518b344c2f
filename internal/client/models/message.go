// Package models defines the wire records the CLI exchanges with the relay.
// Content arrives as ciphertext whenever the record's encryption flags are
// set; the messenger layer decides whether and how to decrypt.
package models

import "time"

// MessageType classifies a message payload.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
)

// Message mirrors the relay's stored record.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	ReceiverID     string      `json:"receiverId"`
	Content        string      `json:"content"`
	Type           MessageType `json:"messageType"`

	EncryptedMediaURL string `json:"encryptedMediaUrl,omitempty"`
	MediaIV           string `json:"mediaIv,omitempty"`
	OriginalFileName  string `json:"originalFileName,omitempty"`
	MediaMimeType     string `json:"mediaMimeType,omitempty"`

	// The flags are the sole signal for whether decryption should be
	// attempted on content / media.
	IsEncrypted      bool `json:"isEncrypted"`
	IsMediaEncrypted bool `json:"isMediaEncrypted"`

	Seen   bool       `json:"seen"`
	SeenAt *time.Time `json:"seenAt,omitempty"`

	Edited   bool       `json:"edited"`
	EditedAt *time.Time `json:"editedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is the relay's conversation view.
type Conversation struct {
	ID                 string    `json:"id"`
	Participants       []string  `json:"participants"`
	LastMessage        *Message  `json:"lastMessage,omitempty"`
	LastMessagePreview string    `json:"lastMessagePreview"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// OtherParticipant returns the peer of userID within the conversation.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// MessagePage is one page of chronological history.
type MessagePage struct {
	Messages    []*Message `json:"messages"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	Total       int64      `json:"total"`
}

// EncryptedMediaUpload is the relay's answer to an encrypted media upload.
type EncryptedMediaUpload struct {
	EncryptedURL     string `json:"encryptedUrl"`
	IV               string `json:"iv"`
	OriginalFileName string `json:"originalFileName"`
	MimeType         string `json:"mimeType"`
}

// SendMessageRequest is the POST /send body.
type SendMessageRequest struct {
	ConversationID    string      `json:"conversationId"`
	Content           string      `json:"content"`
	Type              MessageType `json:"messageType"`
	EncryptedMediaURL string      `json:"encryptedMediaUrl,omitempty"`
	MediaIV           string      `json:"mediaIv,omitempty"`
	OriginalFileName  string      `json:"originalFileName,omitempty"`
	MediaMimeType     string      `json:"mediaMimeType,omitempty"`
	IsEncrypted       bool        `json:"isEncrypted"`
	IsMediaEncrypted  bool        `json:"isMediaEncrypted"`
}
