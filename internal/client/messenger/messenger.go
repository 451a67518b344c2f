// Package messenger is the encryption boundary of the CLI: everything above
// it works with plaintext, everything below it (transport, object store)
// sees only ciphertext. It pairs the conversation key store with the relay
// transport and owns the encrypt-before-send / decrypt-after-fetch rules.
package messenger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/techconhub/messaging/internal/client/models"
	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/cryptox"
)

// KeySource provides per-conversation symmetric keys.
type KeySource interface {
	GetOrCreate(ctx context.Context, conversationID string) ([]byte, error)
	Retrieve(ctx context.Context, conversationID string) ([]byte, error)
	Has(ctx context.Context, conversationID string) (bool, error)
}

// Relay is the slice of the transport client the messenger consumes.
type Relay interface {
	GetOrCreateConversation(ctx context.Context, userID string) (*models.Conversation, error)
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string, page, limit int) (*models.MessagePage, error)
	SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.Message, error)
	MarkMessageSeen(ctx context.Context, messageID string) (*models.Message, error)
	MarkConversationSeen(ctx context.Context, conversationID string) error
	EditMessage(ctx context.Context, messageID, content string, isEncrypted bool) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	UploadEncryptedMedia(ctx context.Context, blob []byte, iv, originalName, mimeType string) (*models.EncryptedMediaUpload, error)
}

// Item is one history entry after the decryption pass. Err is set when the
// record was flagged encrypted but could not be decrypted; Text is then
// empty and the caller decides how to render the failure.
type Item struct {
	*models.Message
	Text string
	Err  error
}

// Messenger orchestrates keys, ciphers and transport.
type Messenger struct {
	keys  KeySource
	relay Relay
}

// New constructs a Messenger.
func New(keys KeySource, relay Relay) *Messenger {
	return &Messenger{keys: keys, relay: relay}
}

// OpenConversation returns (creating if needed) the conversation with userID
// and makes sure a local key exists for it.
func (m *Messenger) OpenConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	conv, err := m.relay.GetOrCreateConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := m.keys.GetOrCreate(ctx, conv.ID); err != nil {
		return nil, fmt.Errorf("preparing conversation key: %w", err)
	}
	return conv, nil
}

// Conversations lists the caller's conversations. Previews are server-side
// type markers, never plaintext, so they pass through untouched.
func (m *Messenger) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	return m.relay.ListConversations(ctx)
}

// SendText encrypts text under the conversation key and sends it. Plaintext
// never reaches the transport.
func (m *Messenger) SendText(ctx context.Context, conversationID, text string) (*models.Message, error) {
	key, err := m.keys.GetOrCreate(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation key: %w", err)
	}

	blob, err := cryptox.EncryptText([]byte(text), key)
	if err != nil {
		return nil, fmt.Errorf("encrypting message: %w", err)
	}

	return m.relay.SendMessage(ctx, &models.SendMessageRequest{
		ConversationID: conversationID,
		Content:        blob,
		Type:           models.MessageTypeText,
		IsEncrypted:    true,
	})
}

// History fetches one page and runs the decryption pass. Each record's
// isEncrypted flag alone decides whether decryption is attempted; a failure
// never aborts the page, it is recorded on the item.
func (m *Messenger) History(ctx context.Context, conversationID string, page, limit int) ([]*Item, error) {
	result, err := m.relay.GetMessages(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}

	key, keyErr := m.keys.Retrieve(ctx, conversationID)

	items := make([]*Item, 0, len(result.Messages))
	for _, msg := range result.Messages {
		items = append(items, m.decryptItem(msg, key, keyErr))
	}
	return items, nil
}

func (m *Messenger) decryptItem(msg *models.Message, key []byte, keyErr error) *Item {
	item := &Item{Message: msg}

	if !msg.IsEncrypted {
		item.Text = msg.Content
		return item
	}
	if keyErr != nil {
		item.Err = fmt.Errorf("no usable key: %w", keyErr)
		return item
	}

	plain, err := cryptox.DecryptText(msg.Content, key)
	if err != nil {
		item.Err = err
		return item
	}
	item.Text = string(plain)
	return item
}

// EditText re-encrypts the replacement text and submits the edit.
func (m *Messenger) EditText(ctx context.Context, conversationID, messageID, text string) (*models.Message, error) {
	key, err := m.keys.Retrieve(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation key: %w", err)
	}

	blob, err := cryptox.EncryptText([]byte(text), key)
	if err != nil {
		return nil, fmt.Errorf("encrypting message: %w", err)
	}

	return m.relay.EditMessage(ctx, messageID, blob, true)
}

// Delete removes one of the caller's own messages.
func (m *Messenger) Delete(ctx context.Context, messageID string) error {
	return m.relay.DeleteMessage(ctx, messageID)
}

// MarkSeen stamps one message as seen.
func (m *Messenger) MarkSeen(ctx context.Context, messageID string) error {
	_, err := m.relay.MarkMessageSeen(ctx, messageID)
	return err
}

// MarkConversationSeen stamps every unseen message in the conversation.
func (m *Messenger) MarkConversationSeen(ctx context.Context, conversationID string) error {
	return m.relay.MarkConversationSeen(ctx, conversationID)
}

// CanDecrypt reports whether a local key exists for the conversation, so the
// UI can warn before showing a wall of undecryptable history.
func (m *Messenger) CanDecrypt(ctx context.Context, conversationID string) bool {
	ok, err := m.keys.Has(ctx, conversationID)
	return err == nil && ok
}

// decodeNonce turns the wire-format base64 IV back into bytes.
func decodeNonce(iv string) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil || len(nonce) != cryptox.NonceSize {
		return nil, common.ErrDecryptionFailed
	}
	return nonce, nil
}

var errNotMedia = errors.New("message carries no encrypted media")
