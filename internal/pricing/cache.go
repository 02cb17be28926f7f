package pricing

import (
	"sync"
	"time"
)

const defaultCacheTTL = time.Minute

// quoteCache is a process-local TTL cache for oracle responses. Entries are
// independent per key, so racing writers with the same key losing an update
// is harmless: the recompute is idempotent within the TTL.
type quoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	// now is swapped by tests to control expiry.
	now func() time.Time
}

type cacheEntry struct {
	quote   Quote
	expires time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &quoteCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *quoteCache) get(key string) (Quote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return Quote{}, false
	}
	return entry.quote, true
}

func (c *quoteCache) put(key string, q Quote) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{quote: q, expires: c.now().Add(c.ttl)}
	// Opportunistic sweep: drop expired entries while we hold the lock so
	// the map does not grow without bound across months of queries.
	if len(c.entries) > 512 {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.mu.Unlock()
}
