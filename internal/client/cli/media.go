package cli

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
)

// SendFile encrypts a local file and sends it to the open conversation.
// The mime type is guessed from the extension and can be overridden.
func (a *App) SendFile(ctx context.Context) error {
	if err := a.requireConversation(); err != nil {
		return err
	}

	path, err := GetSimpleText(a.reader, "Path to photo or video", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		if mimeType, err = GetSimpleText(a.reader, "Mime type (e.g. image/jpeg)", os.Stdout); err != nil {
			log.Printf("error: %v", err)
			return err
		}
	}

	msg, err := a.messenger.SendMedia(ctx, a.current.ID, path, mimeType)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Printf("Sent %s (%s).\n", msg.ID, msg.Type)
	return nil
}

// OpenFile downloads and decrypts the media behind a history item and stages
// the plaintext in the cache directory for an external viewer. The staged
// file stays there until the cache is cleaned.
func (a *App) OpenFile(ctx context.Context) error {
	item, err := a.pickItem("Message # to open")
	if err != nil {
		return err
	}

	handle, err := a.messenger.OpenMedia(ctx, item.Message, a.config.MediaCacheDir)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Printf("Decrypted %s -> %s\n", handle.OriginalName, handle.Path)
	return nil
}
