package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/techconhub/messaging/internal/client/messenger"
)

// encryptedPlaceholder is what an undecryptable record renders as. The
// failure itself stays on the item; the history view only decides how it
// looks.
const encryptedPlaceholder = "[Encrypted message]"

var errNoHistory = errors.New("no history loaded, use 'history' first")

// Send encrypts a line of text and sends it to the open conversation.
func (a *App) Send(ctx context.Context) error {
	if err := a.requireConversation(); err != nil {
		return err
	}

	text, err := GetSimpleText(a.reader, "Message", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if text == "" {
		return nil
	}

	msg, err := a.messenger.SendText(ctx, a.current.ID, text)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Printf("Sent %s.\n", msg.ID)
	return nil
}

// History shows one page of the open conversation, oldest first. Items are
// numbered so edit/delete/openfile can refer to them.
func (a *App) History(ctx context.Context) error {
	if err := a.requireConversation(); err != nil {
		return err
	}

	pageText, err := GetSimpleText(a.reader, "Page (Enter for 1)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	page := 1
	if pageText != "" {
		if page, err = strconv.Atoi(pageText); err != nil {
			log.Printf("not a page number: %s", pageText)
			return err
		}
	}

	items, err := a.messenger.History(ctx, a.current.ID, page, 50)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	a.lastItems = items

	for i, item := range items {
		fmt.Println(a.renderItem(i+1, item))
	}
	return nil
}

func (a *App) renderItem(n int, item *messenger.Item) string {
	sender := item.SenderID
	if sender == a.userID {
		sender = "me"
	}

	text := item.Text
	if item.Err != nil {
		text = encryptedPlaceholder
	}
	if item.IsMediaEncrypted {
		text = text + fmt.Sprintf("  [%s attachment: 'openfile' to view]", item.Type)
	}

	flags := ""
	if item.Edited {
		flags = " (edited)"
	}
	if item.Seen {
		flags = flags + " ✓"
	}

	return fmt.Sprintf("[%d] %s  %s: %s%s",
		n, item.CreatedAt.Local().Format("15:04"), sender, text, flags)
}

// Edit replaces the text of one of the caller's own messages.
func (a *App) Edit(ctx context.Context) error {
	item, err := a.pickItem("Message # to edit")
	if err != nil {
		return err
	}

	text, err := GetSimpleText(a.reader, "New text", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if _, err := a.messenger.EditText(ctx, a.current.ID, item.ID, text); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Println("Edited.")
	return nil
}

// Delete removes one of the caller's own messages.
func (a *App) Delete(ctx context.Context) error {
	item, err := a.pickItem("Message # to delete")
	if err != nil {
		return err
	}

	if err := a.messenger.Delete(ctx, item.ID); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// Seen marks every unseen message in the open conversation as read.
func (a *App) Seen(ctx context.Context) error {
	if err := a.requireConversation(); err != nil {
		return err
	}

	if err := a.messenger.MarkConversationSeen(ctx, a.current.ID); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Println("Conversation marked as read.")
	return nil
}

// pickItem resolves a history number entered by the user to the item.
func (a *App) pickItem(prompt string) (*messenger.Item, error) {
	if err := a.requireConversation(); err != nil {
		return nil, err
	}
	if len(a.lastItems) == 0 {
		log.Println(errNoHistory.Error())
		return nil, errNoHistory
	}

	numText, err := GetSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return nil, err
	}

	n, err := strconv.Atoi(numText)
	if err != nil || n < 1 || n > len(a.lastItems) {
		log.Printf("no such message: %s", numText)
		return nil, fmt.Errorf("no such message: %s", numText)
	}
	return a.lastItems[n-1], nil
}
