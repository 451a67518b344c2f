// Package cli implements the interactive messaging client: a small REPL over
// the messenger core, plus key backup import/export.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/techconhub/messaging/internal/client/config"
	"github.com/techconhub/messaging/internal/client/messenger"
	"github.com/techconhub/messaging/internal/client/models"
	"github.com/techconhub/messaging/internal/client/realtime"
	"github.com/techconhub/messaging/internal/client/transport"
	"github.com/techconhub/messaging/internal/keystore"
)

type App struct {
	config    *config.Config
	keys      *keystore.Store
	transport *transport.Client
	messenger *messenger.Messenger

	userID  string
	current *models.Conversation
	// last rendered history page, so commands can address items by number
	lastItems []*messenger.Item

	rt       *realtime.Conn
	rtCancel context.CancelFunc

	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	keys, err := keystore.Open(ctx, c.KeyDBPath)
	if err != nil {
		log.Printf("error initializing key store: %s", err.Error())
		return nil, err
	}

	tc := transport.NewClient(c.ServerBaseURL, c.RequestTimeout)

	return &App{
		config:    c,
		keys:      keys,
		transport: tc,
		messenger: messenger.New(keys, tc),
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close tears down the realtime connection and the key store.
func (a *App) Close() {
	a.disconnectRealtime()
	if err := a.keys.Close(); err != nil {
		log.Printf("error closing key store: %s", err.Error())
	}
}

func (a *App) isLoggedIn() bool {
	return a.userID != ""
}

// connectRealtime dials the websocket endpoint and starts the listener. Event
// callbacks print straight to the terminal; decryption of pushed messages
// happens on render, same as history.
func (a *App) connectRealtime(ctx context.Context, token string) {
	rtCtx, cancel := context.WithCancel(ctx)

	conn, err := realtime.Dial(rtCtx, a.config.ServerBaseURL, token, a.eventHandlers())
	if err != nil {
		cancel()
		log.Printf("realtime connection unavailable: %s", err.Error())
		return
	}

	a.rt = conn
	a.rtCancel = cancel

	go func() {
		if err := conn.Listen(rtCtx); err != nil && rtCtx.Err() == nil {
			printlnFn("(realtime connection lost)")
		}
	}()
}

func (a *App) disconnectRealtime() {
	if a.rtCancel != nil {
		a.rtCancel()
		a.rtCancel = nil
	}
	if a.rt != nil {
		a.rt.Close()
		a.rt = nil
	}
}

func (a *App) eventHandlers() realtime.Handlers {
	return realtime.Handlers{
		OnMessage: func(msg *models.Message) {
			printlnFn("\n* new message from " + msg.SenderID + " (use 'history' to read)")
		},
		OnTyping: func(conversationID, userID string) {
			printlnFn("\n* " + userID + " is typing...")
		},
		OnStopTyping: func(conversationID, userID string) {},
		OnUserOnline: func(userID string) {
			printlnFn("\n* " + userID + " is online")
		},
		OnUserOffline: func(userID string) {
			printlnFn("\n* " + userID + " went offline")
		},
		OnSeen: func(messageID, conversationID string, seenAt time.Time) {
			printlnFn("\n* message " + messageID + " was seen")
		},
		OnError: func(message string) {
			printlnFn("\n* server: " + message)
		},
	}
}
