package service

import "sync"

// lookupCache maps raw identity tokens to their stored secured hash so a hot
// identity skips the searchable-hash index query. It is an optimization
// only: a hit is never trusted until the raw token re-verifies against the
// secured hash, so a poisoned or stale entry can cost a miss but never a
// false accept.
type lookupCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func newLookupCache() *lookupCache {
	return &lookupCache{entries: make(map[string]string)}
}

func (c *lookupCache) get(raw string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hash, ok := c.entries[raw]
	return hash, ok
}

func (c *lookupCache) put(raw, securedHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[raw] = securedHash
}

func (c *lookupCache) drop(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, raw)
}
