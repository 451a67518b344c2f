package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/keystore"
)

// Export writes a password-wrapped backup of every conversation key to a
// file. Losing the keys means losing the history, so this is the one copy
// worth keeping off the device.
func (a *App) Export(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Backup file to write", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	backup, err := a.keys.Export(ctx, password)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Printf("error writing backup: %v", err)
		return err
	}

	fmt.Printf("Keys exported to %s.\n", path)
	return nil
}

// Import restores conversation keys from a backup file, overwriting local
// entries for the same conversations.
func (a *App) Import(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Backup file to read", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("error reading backup: %v", err)
		return err
	}

	var backup keystore.Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		log.Println(common.ErrMalformedBackup.Error())
		return common.ErrMalformedBackup
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.keys.Import(ctx, &backup, password); err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Println("Keys restored.")
	return nil
}
