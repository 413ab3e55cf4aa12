package realtime

import "sync"

// Registry tracks which connection currently represents which user. One
// handle per user: a second connection for the same user silently supersedes
// the first. Entries live exactly as long as the underlying connection.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint]*Client
}

// NewRegistry creates a new Registry
func NewRegistry() *Registry {
	return &Registry{clients: make(map[uint]*Client)}
}

// Register installs the client as the user's handle and returns the handle it
// replaced, if any. The caller is responsible for closing the replaced one.
func (r *Registry) Register(userID uint, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced := r.clients[userID]
	r.clients[userID] = c
	return replaced
}

// Unregister removes the user's presence entry, but only when c is still the
// registered handle — a stale disconnect never evicts a newer connection.
// It is idempotent and reports whether anything was removed.
func (r *Registry) Unregister(userID uint, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[userID] != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

// Lookup returns the user's current handle.
func (r *Registry) Lookup(userID uint) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Push delivers an event to the user if they are present. Returns false when
// the user is absent or the client's buffer is full; neither is an error.
func (r *Registry) Push(userID uint, event string, data any) bool {
	c, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	return c.Send(event, data)
}

// OnlineUserIDs returns the ids of all currently present users.
func (r *Registry) OnlineUserIDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}
