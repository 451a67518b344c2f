// Package transport is the CLI's HTTP client for the relay. It never touches
// keys or plaintext: requests and responses carry ciphertext exactly as the
// messenger layer prepared it.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/techconhub/messaging/internal/client/models"
	"github.com/techconhub/messaging/internal/common"
)

// Client talks to the relay's HTTP surface with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a transport client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// GetOrCreateConversation returns the conversation with userID, creating it
// on first contact.
func (c *Client) GetOrCreateConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodPost, "/conversation/"+url.PathEscape(userID), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the caller's conversations with previews.
func (c *Client) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetMessages returns one page of history, chronological order.
func (c *Client) GetMessages(ctx context.Context, conversationID string, page, limit int) (*models.MessagePage, error) {
	path := fmt.Sprintf("/conversation/%s/messages?page=%s&limit=%s",
		url.PathEscape(conversationID), strconv.Itoa(page), strconv.Itoa(limit))

	var result models.MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessage posts a prepared (already encrypted) message record.
func (c *Client) SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/send", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessageSeen stamps one message as seen.
func (c *Client) MarkMessageSeen(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPut, "/message/"+url.PathEscape(messageID)+"/seen", nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkConversationSeen stamps every unseen message addressed to the caller.
func (c *Client) MarkConversationSeen(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPut, "/conversation/"+url.PathEscape(conversationID)+"/seen", nil, nil)
}

type editRequest struct {
	Content     string `json:"content"`
	IsEncrypted bool   `json:"isEncrypted"`
}

// EditMessage replaces a message's (re-encrypted) content.
func (c *Client) EditMessage(ctx context.Context, messageID, content string, isEncrypted bool) (*models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(messageID),
		&editRequest{Content: content, IsEncrypted: isEncrypted}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes one of the caller's own messages.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/"+url.PathEscape(messageID), nil, nil)
}

// UploadEncryptedMedia uploads a ciphertext blob via multipart form and
// returns the storage record to attach to a message.
func (c *Client) UploadEncryptedMedia(ctx context.Context, blob []byte, iv, originalName, mimeType string) (*models.EncryptedMediaUpload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("media", originalName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(blob); err != nil {
		return nil, err
	}
	for k, v := range map[string]string{"iv": iv, "originalName": originalName, "mimeType": mimeType} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/encrypted-media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode); err != nil {
		return nil, err
	}

	var result models.EncryptedMediaUpload
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+c.token)
	}
}

// do runs one JSON request/response round trip. out may be nil when the
// response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusToError maps HTTP statuses onto the shared sentinels so callers can
// branch with errors.Is.
func statusToError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case status == http.StatusForbidden:
		return common.ErrorForbidden
	case status == http.StatusNotFound:
		return common.ErrorNotFound
	case status == http.StatusBadRequest:
		return common.ErrorValidation
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrorInternal, status)
	}
}
