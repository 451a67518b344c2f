package messenger

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/techconhub/messaging/internal/client/models"
	"github.com/techconhub/messaging/internal/cryptox"
	"github.com/techconhub/messaging/internal/filex"
	"github.com/techconhub/messaging/internal/netx"
)

// fetchMediaURL is a seam for tests; production code downloads straight from
// the presigned URL.
var fetchMediaURL = netx.FetchURL

// MediaHandle is a decrypted media file staged on disk for an external
// viewer. Close removes the plaintext from disk.
type MediaHandle struct {
	Path         string
	OriginalName string
	MimeType     string
}

// Close deletes the staged plaintext file.
func (h *MediaHandle) Close() error {
	return os.Remove(h.Path)
}

// SendMedia encrypts the file at path under the conversation key, uploads
// the ciphertext, and sends the referencing message. The media nonce travels
// as a separate base64 field, unlike text where it is prepended to the blob.
func (m *Messenger) SendMedia(ctx context.Context, conversationID, path, mimeType string) (*models.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading media file: %w", err)
	}

	key, err := m.keys.GetOrCreate(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation key: %w", err)
	}

	ciphertext, nonce, err := cryptox.EncryptMedia(data, key)
	if err != nil {
		return nil, fmt.Errorf("encrypting media: %w", err)
	}

	originalName := filepath.Base(path)
	iv := base64.StdEncoding.EncodeToString(nonce)

	upload, err := m.relay.UploadEncryptedMedia(ctx, ciphertext, iv, originalName, mimeType)
	if err != nil {
		return nil, fmt.Errorf("uploading media: %w", err)
	}

	// the visible caption is the file name, encrypted like any text message
	caption, err := cryptox.EncryptText([]byte(originalName), key)
	if err != nil {
		return nil, fmt.Errorf("encrypting caption: %w", err)
	}

	return m.relay.SendMessage(ctx, &models.SendMessageRequest{
		ConversationID:    conversationID,
		Content:           caption,
		Type:              mediaTypeFor(mimeType),
		EncryptedMediaURL: upload.EncryptedURL,
		MediaIV:           upload.IV,
		OriginalFileName:  upload.OriginalFileName,
		MediaMimeType:     upload.MimeType,
		IsEncrypted:       true,
		IsMediaEncrypted:  true,
	})
}

// OpenMedia downloads, decrypts and stages a message's media attachment in
// cacheDir. Fetch failures and decrypt failures are distinguishable: the
// former wrap the transport error, the latter surface the cipher sentinel.
func (m *Messenger) OpenMedia(ctx context.Context, msg *models.Message, cacheDir string) (*MediaHandle, error) {
	if !msg.IsMediaEncrypted || msg.EncryptedMediaURL == "" {
		return nil, errNotMedia
	}

	key, err := m.keys.Retrieve(ctx, msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation key: %w", err)
	}

	nonce, err := decodeNonce(msg.MediaIV)
	if err != nil {
		return nil, err
	}

	ciphertext, err := fetchMediaURL(ctx, msg.EncryptedMediaURL)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}

	plain, err := cryptox.DecryptMedia(ciphertext, nonce, key)
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(cacheDir)
	if err != nil {
		return nil, err
	}

	name := msg.OriginalFileName
	if name == "" {
		name = "media"
	}
	path := filepath.Join(dir, uuid.NewString()+"-"+filepath.Base(name))

	if err := os.WriteFile(path, plain, 0o600); err != nil {
		return nil, fmt.Errorf("staging media file: %w", err)
	}

	return &MediaHandle{
		Path:         path,
		OriginalName: msg.OriginalFileName,
		MimeType:     msg.MediaMimeType,
	}, nil
}

func mediaTypeFor(mimeType string) models.MessageType {
	if strings.HasPrefix(mimeType, "video/") {
		return models.MessageTypeVideo
	}
	return models.MessageTypeImage
}
