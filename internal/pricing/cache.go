package pricing

import (
	"strings"
	"sync"
	"time"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// Cache memoizes discovered prices for a short TTL to absorb bursty identical
// lookups. It is an explicit object with an injected clock so TTL behavior is
// testable; entries are immutable once written, a RWMutex map is all the
// coordination needed.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	price model.Price
	at    time.Time
}

// NewCache builds a cache with the given TTL. A nil clock defaults to
// time.Now. A zero or negative TTL disables caching.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a cached price no older than the TTL.
func (c *Cache) Get(token, quoteToken string) (model.Price, bool) {
	if c == nil || c.ttl <= 0 {
		return model.Price{}, false
	}

	key := cacheKey(token, quoteToken)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return model.Price{}, false
	}
	if c.now().Sub(entry.at) > c.ttl {
		return model.Price{}, false
	}
	return entry.price, true
}

// Put stores a freshly discovered price.
func (c *Cache) Put(price model.Price) {
	if c == nil || c.ttl <= 0 {
		return
	}

	key := cacheKey(price.Token, price.QuoteToken)
	c.mu.Lock()
	c.entries[key] = cacheEntry{price: price, at: c.now()}
	c.mu.Unlock()
}

func cacheKey(token, quoteToken string) string {
	return strings.ToLower(token) + "/" + strings.ToLower(quoteToken)
}
