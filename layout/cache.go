package layout

import (
	"sync"

	"github.com/wippyai/clayout/ctype"
)

// Cache holds completed layouts keyed by type identity for one compilation
// unit. Entries are published once and never replaced; a computation that
// loses a race adopts the published layout.
type Cache struct {
	entries map[ctype.Type]*Layout
	mu      sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{entries: make(map[ctype.Type]*Layout)}
}

// Load returns the cached layout for t.
func (c *Cache) Load(t ctype.Type) (*Layout, bool) {
	c.mu.RLock()
	l, ok := c.entries[t]
	c.mu.RUnlock()
	return l, ok
}

// Store publishes l for t unless another layout was published first, and
// returns whichever layout is now cached.
func (c *Cache) Store(t ctype.Type, l *Layout) *Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[t]; ok {
		return prev
	}
	c.entries[t] = l
	return l
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[ctype.Type]*Layout)
	c.mu.Unlock()
}
