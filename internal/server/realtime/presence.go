package realtime

import "sync"

// Presence tracks which user has an active websocket connection. At most one
// connection per user: a newer connection replaces the older one (last wins).
type Presence struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewPresence returns an empty presence table.
func NewPresence() *Presence {
	return &Presence{clients: make(map[string]*Client)}
}

// Add registers c as the connection for its user and returns the connection
// it replaced, if any. The caller is responsible for closing the replaced
// connection outside the lock.
func (p *Presence) Add(c *Client) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.clients[c.userID]
	p.clients[c.userID] = c
	return prev
}

// Remove unregisters c, but only if it is still the current connection for
// its user. A stale connection that was already replaced must not knock out
// its successor.
func (p *Presence) Remove(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clients[c.userID] != c {
		return false
	}
	delete(p.clients, c.userID)
	return true
}

// Lookup returns the current connection for userID, or nil.
func (p *Presence) Lookup(userID string) *Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[userID]
}

// Online reports whether userID has an active connection.
func (p *Presence) Online(userID string) bool {
	return p.Lookup(userID) != nil
}

// Snapshot returns the user ids of every active connection.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	return ids
}

// each iterates over active connections. The callback runs under the read
// lock and must not call back into Presence.
func (p *Presence) each(fn func(userID string, c *Client)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, c := range p.clients {
		fn(id, c)
	}
}
