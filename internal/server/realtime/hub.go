package realtime

import (
	"context"
	"encoding/json"

	"github.com/techconhub/messaging/internal/logging"
	"github.com/techconhub/messaging/internal/server/models"
	"github.com/techconhub/messaging/internal/server/services"
)

// MessageStore is the slice of the message service the hub needs: inbound
// sendMessage and messageSeen events are persisted before any relaying.
type MessageStore interface {
	Send(ctx context.Context, senderID string, req *services.SendMessageRequest) (*models.Message, error)
	MarkMessageSeen(ctx context.Context, userID, messageID string) (*models.Message, error)
}

// Hub routes websocket events between connected users. Delivery is best
// effort: events for offline users are dropped, persistence is the message
// service's job.
type Hub struct {
	presence *Presence
	store    MessageStore
	logger   logging.Logger
}

// NewHub constructs a Hub.
func NewHub(store MessageStore, logger logging.Logger) *Hub {
	return &Hub{
		presence: NewPresence(),
		store:    store,
		logger:   logger.With("component", "realtime"),
	}
}

// OnlineUsers returns the ids of currently connected users.
func (h *Hub) OnlineUsers() []string {
	return h.presence.Snapshot()
}

// connect registers the client, tells it who is already online, and
// announces it to everyone else. A previous connection for the same user is
// closed; its stale remove will be a no-op.
func (h *Hub) connect(ctx context.Context, c *Client) {
	if prev := h.presence.Add(c); prev != nil {
		h.logger.Info(ctx, "replacing existing connection", "user_id", c.userID)
		prev.shutdown()
	}

	for _, peer := range h.peersOf(c.userID) {
		h.emit(ctx, c, EventUserOnline, PresenceNotice{UserID: peer.userID})
		h.emit(ctx, peer, EventUserOnline, PresenceNotice{UserID: c.userID})
	}

	h.logger.Info(ctx, "client connected", "user_id", c.userID, "online", len(h.presence.Snapshot()))
}

// disconnect unregisters the client and announces the departure, unless the
// client was already replaced by a newer connection.
func (h *Hub) disconnect(ctx context.Context, c *Client) {
	if !h.presence.Remove(c) {
		return
	}

	for _, peer := range h.peersOf(c.userID) {
		h.emit(ctx, peer, EventUserOffline, PresenceNotice{UserID: c.userID})
	}

	h.logger.Info(ctx, "client disconnected", "user_id", c.userID)
}

// peersOf snapshots every connection except userID's own, so callers can
// emit without holding the presence lock.
func (h *Hub) peersOf(userID string) []*Client {
	var peers []*Client
	h.presence.each(func(id string, peer *Client) {
		if id != userID {
			peers = append(peers, peer)
		}
	})
	return peers
}

// dispatch handles one inbound event from a client.
func (h *Hub) dispatch(ctx context.Context, c *Client, env *Envelope) {
	h.logger.Debug(ctx, "inbound event", "user_id", c.userID, "event", env.Event)

	switch env.Event {
	case EventSendMessage:
		h.handleSendMessage(ctx, c, env.Data)
	case EventTyping:
		h.relayTyping(ctx, c, env.Data, EventUserTyping)
	case EventStopTyping:
		h.relayTyping(ctx, c, env.Data, EventUserStoppedTyping)
	case EventMessageSeen:
		h.handleMessageSeen(ctx, c, env.Data)
	default:
		h.logger.Warn(ctx, "unknown websocket event", "user_id", c.userID, "event", env.Event)
		h.emit(ctx, c, EventError, ErrorNotice{Message: "unknown event: " + env.Event})
	}
}

// handleSendMessage persists the message and relays it. The sender gets an
// echo of the stored record (with server-assigned id and timestamp); the
// receiver gets it only if online.
func (h *Hub) handleSendMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var req services.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.emit(ctx, c, EventError, ErrorNotice{Message: "malformed sendMessage payload"})
		return
	}

	msg, err := h.store.Send(ctx, c.userID, &req)
	if err != nil {
		h.logger.Warn(ctx, "websocket send rejected", "user_id", c.userID, "error", err)
		h.emit(ctx, c, EventError, ErrorNotice{Message: "message not delivered"})
		return
	}

	h.emit(ctx, c, EventReceiveMessage, msg)

	if peer := h.presence.Lookup(msg.ReceiverID); peer != nil {
		h.emit(ctx, peer, EventReceiveMessage, msg)
	}
}

// relayTyping forwards a typing indicator to its addressee, if online.
// Indicators are ephemeral and never persisted.
func (h *Hub) relayTyping(ctx context.Context, c *Client, data json.RawMessage, outEvent string) {
	var ev TypingEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.To == "" {
		return
	}

	if peer := h.presence.Lookup(ev.To); peer != nil {
		h.emit(ctx, peer, outEvent, TypingNotice{ConversationID: ev.ConversationID, UserID: c.userID})
	}
}

// handleMessageSeen stamps the message and notifies its sender, if online.
func (h *Hub) handleMessageSeen(ctx context.Context, c *Client, data json.RawMessage) {
	var ev MessageSeenEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.MessageID == "" {
		return
	}

	msg, err := h.store.MarkMessageSeen(ctx, c.userID, ev.MessageID)
	if err != nil {
		h.logger.Warn(ctx, "seen event rejected", "user_id", c.userID, "message_id", ev.MessageID, "error", err)
		return
	}

	if peer := h.presence.Lookup(msg.SenderID); peer != nil {
		h.emit(ctx, peer, EventMessageMarkedAsSeen, SeenNotice{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			SeenAt:         *msg.SeenAt,
		})
	}
}

// emit queues one event for a client, dropping the connection if its buffer
// is full (a stalled reader must not stall the hub).
func (h *Hub) emit(ctx context.Context, c *Client, event string, data any) {
	env, err := NewEnvelope(event, data)
	if err != nil {
		h.logger.Error(ctx, "failed to encode event", "event", event, "error", err)
		return
	}
	if !c.enqueue(env) {
		h.logger.Warn(ctx, "send buffer full, dropping connection", "user_id", c.userID)
		h.presence.Remove(c)
		c.shutdown()
	}
}
