// Package netx holds small HTTP helpers for talking to the object store:
// blobs are fetched straight from presigned URLs, bypassing the relay.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchURL downloads the body at url. The bytes are ciphertext when the URL
// came from an encrypted-media record; decryption is the caller's problem.
func FetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch failed: %s; body: %s", resp.Status, string(b))
	}

	return io.ReadAll(resp.Body)
}
