package transport

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// DefaultCacheMaxEntries caps a Cached transport when no limit is configured.
const DefaultCacheMaxEntries = 10_000

// Cached remembers successful call results for a fixed TTL. Failures are
// never cached. At most maxEntries results are held; expired entries are
// dropped on access, on Purge, and before any insert into a full cache.
type Cached struct {
	inner      interfaces.CallTransport
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry

	stopOnce sync.Once
	stop     chan struct{}
}

type cacheEntry struct {
	data     []byte
	cachedAt time.Time
}

// NewCached wraps inner with a result cache. A maxEntries of zero selects
// DefaultCacheMaxEntries.
func NewCached(inner interfaces.CallTransport, ttl time.Duration, maxEntries int) *Cached {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cached{
		inner:      inner,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
		stop:       make(chan struct{}),
	}
}

func cacheKey(to common.Address, data []byte) string {
	return to.Hex() + ":" + hex.EncodeToString(data)
}

func (c *Cached) expired(entry cacheEntry, now time.Time) bool {
	return now.Sub(entry.cachedAt) >= c.ttl
}

// Call returns a cached result if it is younger than the TTL, otherwise it
// calls through and caches the answer.
func (c *Cached) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	key := cacheKey(to, data)

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if found {
		if !c.expired(entry, c.now()) {
			return entry.data, nil
		}
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && c.expired(current, c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	out, err := c.inner.Call(ctx, to, data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.insertLocked(key, cacheEntry{data: out, cachedAt: c.now()})
	c.mu.Unlock()

	return out, nil
}

func (c *Cached) insertLocked(key string, entry cacheEntry) {
	if _, found := c.entries[key]; !found && len(c.entries) >= c.maxEntries {
		c.purgeLocked(entry.cachedAt)
	}
	if _, found := c.entries[key]; !found && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
}

func (c *Cached) purgeLocked(now time.Time) {
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
		}
	}
}

func (c *Cached) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for key, entry := range c.entries {
		if first || entry.cachedAt.Before(oldestAt) {
			oldestKey, oldestAt, first = key, entry.cachedAt, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Purge drops expired entries.
func (c *Cached) Purge() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked(now)
}

// StartPurging purges expired entries every interval until Close.
func (c *Cached) StartPurging(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Purge()
			case <-c.stop:
				return
			}
		}
	}()
}

// Close stops background purging.
func (c *Cached) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Len returns the number of cached entries, expired ones included.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ interfaces.CallTransport = (*Cached)(nil)
