package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	sendBufferSize = 256
)

// conn is the subset of *websocket.Conn the client uses; a seam for tests.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one authenticated websocket connection. Outbound frames go
// through the buffered send channel; a full buffer drops the connection
// rather than blocking the hub.
//
// The send channel is never closed: hub goroutines relaying on behalf of
// other users may hold a reference to a client that was just replaced or
// dropped, and a send on a closed channel would panic the whole relay.
// Shutdown is signalled through done instead, which is safe to observe from
// any number of goroutines.
type Client struct {
	hub    *Hub
	conn   conn
	userID string
	send   chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

func newClient(hub *Hub, c conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   c,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// shutdown signals the pumps to stop. Idempotent and safe to call from any
// goroutine; the write pump closes the underlying connection, which in turn
// unblocks the read pump.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// enqueue offers an envelope to the client's send buffer. Returns false if
// the client is shut down or the buffer is full, in which case the hub
// drops the connection.
func (c *Client) enqueue(env *Envelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump reads inbound frames and dispatches them to the hub until the
// connection errors or closes.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.disconnect(ctx, c)
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn(ctx, "websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.logger.Warn(ctx, "malformed websocket frame", "user_id", c.userID, "error", err)
			continue
		}

		c.hub.dispatch(ctx, c, &env)
	}
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with pings, until shutdown is signalled or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
