package registration

import "sync"

// Current is the shared cell holding the registry the node is currently
// registered with. The driver writes it on selection and loss; the
// propagator reads it per event. A new selection always supersedes the
// previous one.
type Current struct {
	mu     sync.RWMutex
	client *Client
}

// Set installs a newly selected registry.
func (c *Current) Set(client *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
}

// Get returns the active registry client, or nil when the node has none.
func (c *Current) Get() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Clear drops the active registry after a loss.
func (c *Current) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
}
