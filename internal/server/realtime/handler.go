package realtime

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/server/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// same-origin policy is enforced by the token, not the Origin header
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated requests to websocket connections. The
// access token travels in the query string because browser websocket clients
// cannot set an Authorization header.
func (h *Hub) Handler(secretKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get(common.AccessTokenQueryParam)
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, []byte(secretKey))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn(r.Context(), "websocket upgrade failed", "user_id", userID, "error", err)
			return
		}

		// The request context is cancelled as soon as this handler returns,
		// which on an upgraded connection is immediately. The connection
		// outlives the request, so it gets its own lifecycle context.
		ctx, cancel := context.WithCancel(context.Background())

		c := newClient(h, conn, userID)
		h.connect(ctx, c)

		go c.writePump()
		go func() {
			defer cancel()
			c.readPump(ctx)
		}()
	}
}
