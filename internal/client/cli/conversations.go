package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
)

var errNoConversation = errors.New("no conversation is open, use 'open' first")

// Conversations lists the caller's conversations, newest activity first.
func (a *App) Conversations(ctx context.Context) error {
	convs, err := a.messenger.Conversations(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	for _, c := range convs {
		fmt.Printf("%s  with %s  |  %s  (%s)\n",
			c.ID, c.OtherParticipant(a.userID), c.LastMessagePreview,
			c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Open opens (creating if needed) the conversation with another user and
// makes it current for send/history/seen.
func (a *App) Open(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, "User id to chat with", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	conv, err := a.messenger.OpenConversation(ctx, userID)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	a.current = conv
	a.lastItems = nil
	fmt.Printf("Conversation %s opened.\n", conv.ID)
	return nil
}

func (a *App) requireConversation() error {
	if a.current == nil {
		log.Println(errNoConversation.Error())
		return errNoConversation
	}
	return nil
}
