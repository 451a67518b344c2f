package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Conversations(ctx context.Context) error
	Open(ctx context.Context) error
	Send(ctx context.Context) error
	SendFile(ctx context.Context) error
	History(ctx context.Context) error
	OpenFile(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Seen(ctx context.Context) error
	Export(ctx context.Context) error
	Import(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the messaging CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — enter the access token for this session
//	  - import         — restore conversation keys from a backup
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - conversations  — list conversations
//	  - open           — open (or start) a conversation with a user
//	  - send           — send a text message
//	  - sendfile       — send an encrypted photo or video
//	  - history        — show a page of the open conversation
//	  - openfile       — download and decrypt a media message
//	  - edit           — edit one of your messages
//	  - delete         — delete one of your messages
//	  - seen           — mark the open conversation as read
//	  - export         — export conversation keys to a backup
//	  - import         — restore conversation keys from a backup
//	  - logout         — drop the session
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tch> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (c)onversations, open, send, sendfile, history, openfile, edit, delete, seen, export, import, logout, exit")
			} else {
				printlnFn("Available commands: login, import, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "c", "conversations":
			_ = a.Conversations(ctx)

		case "open":
			_ = a.Open(ctx)

		case "send":
			_ = a.Send(ctx)

		case "sendfile":
			_ = a.SendFile(ctx)

		case "history":
			_ = a.History(ctx)

		case "openfile":
			_ = a.OpenFile(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "seen":
			_ = a.Seen(ctx)

		case "export":
			_ = a.Export(ctx)

		case "import":
			_ = a.Import(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
