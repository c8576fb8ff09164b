// internal/registers/cache.go
package registers

import "sync"

// Cache is the address -> last-known-word map shared by every consumer
// of one device connection.
//
// Many readers, one writer at a time. PutRange is atomic from a reader's
// point of view: a batch is visible completely or not at all.
// Entries are never evicted and never cleared by a failed read.
type Cache struct {
	mu    sync.RWMutex
	words map[Address]uint16
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{words: make(map[Address]uint16)}
}

// Get returns the last known value, or Unknown for never-seen addresses.
func (c *Cache) Get(addr Address) Value {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w, ok := c.words[addr]
	if !ok {
		return Unknown
	}
	return Known(w)
}

// Put stores one word.
func (c *Cache) Put(addr Address, w uint16) {
	c.mu.Lock()
	c.words[addr] = w
	c.mu.Unlock()
}

// PutRange stores words at consecutive addresses starting at start.
// Addresses past 0xFFFF are dropped rather than wrapped.
func (c *Cache) PutRange(start Address, words []uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range words {
		addr := uint32(start) + uint32(i)
		if addr > 0xFFFF {
			return
		}
		c.words[Address(addr)] = w
	}
}

// Len returns the number of known addresses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}

// Snapshot returns a copy of every known word.
func (c *Cache) Snapshot() map[Address]uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[Address]uint16, len(c.words))
	for k, v := range c.words {
		out[k] = v
	}
	return out
}
