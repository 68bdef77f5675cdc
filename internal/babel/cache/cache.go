// Package cache memoizes pipeline search results by request fingerprint,
// evicting by both TTL and a bounded LRU policy. The LRU backing store is
// hashicorp's golang-lru (part of the example pack's dependency surface,
// pulled in transitively by josephgoksu-TaskWing) rather than a hand-rolled
// list+map, matching the "never fall back to stdlib where the ecosystem
// has a library" guidance.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
)

// DefaultTTL and DefaultMaxEntries mirror spec.md §4.5's defaults.
const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 1024
)

// Cache is a fingerprint-keyed, TTL-bounded, LRU-evicted store of
// domain.CacheEntry. The zero value is not usable; construct with New.
type Cache struct {
	mu    sync.Mutex
	lru   *lru.Cache[string, domain.CacheEntry]
	ttl   time.Duration
	clock clock.Clock
}

// Config configures a Cache.
type Config struct {
	MaxEntries int
	TTL        time.Duration
	Clock      clock.Clock
}

// New constructs a Cache. A zero MaxEntries/TTL falls back to the spec
// defaults; a nil Clock falls back to the real wall clock.
func New(cfg Config) (*Cache, error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}

	backing, err := lru.New[string, domain.CacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}

	return &Cache{lru: backing, ttl: ttl, clock: c}, nil
}

// Get returns the entry for fingerprint if present and not expired. The
// returned entry is an independent clone: mutating it never affects the
// cache's internal state, and a subsequent Put of the same fingerprint
// never mutates a value already returned to a caller.
func (c *Cache) Get(fingerprint string) (domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(fingerprint)
	if !ok {
		return domain.CacheEntry{}, false
	}
	if c.clock.Now().Sub(entry.CreatedAt) >= c.ttl {
		c.lru.Remove(fingerprint)
		return domain.CacheEntry{}, false
	}
	return entry.Clone(), true
}

// Put inserts or overwrites the entry for fingerprint. If the cache is at
// capacity and fingerprint is new, the least-recently-used entry is
// evicted.
func (c *Cache) Put(fingerprint string, entry domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(fingerprint, entry.Clone())
}

// Invalidate removes a single fingerprint, a no-op if absent.
func (c *Cache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(fingerprint)
}

// Flush removes every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Snapshot returns a clone of every unexpired entry currently held,
// ordered arbitrarily. It exists for checkpoint persistence (see the
// checkpoint package); the pipeline itself never calls it.
func (c *Cache) Snapshot() []domain.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.lru.Keys()
	out := make([]domain.CacheEntry, 0, len(keys))
	now := c.clock.Now()
	for _, k := range keys {
		entry, ok := c.lru.Peek(k)
		if !ok {
			continue
		}
		if now.Sub(entry.CreatedAt) >= c.ttl {
			continue
		}
		out = append(out, entry.Clone())
	}
	return out
}

// Restore loads entries into the cache, dropping any already past TTL
// relative to the current clock reading (spec.md §6: "entries past TTL at
// restore time are dropped").
func (c *Cache) Restore(entries []domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for _, e := range entries {
		if now.Sub(e.CreatedAt) >= c.ttl {
			continue
		}
		c.lru.Add(e.Fingerprint, e.Clone())
	}
}
