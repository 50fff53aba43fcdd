// Package store is the cache-aside response cache: an in-memory key to
// (value, timestamp) map with a fixed TTL, persisted as one JSON blob.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
	"oma-gateway/internal/storage"
)

const (
	// StorageKey is where the whole cache is persisted.
	StorageKey = "apiCache"

	DefaultTTL = 5 * time.Minute
)

// Cache is safe for concurrent use. Construct one per process and pass it
// to whatever needs it.
//
// Every Set writes the whole cache through to storage. Storage and
// serialization failures are logged and counted, never returned: the
// cache must stay correct, only slower, when storage is unavailable.
type Cache struct {
	mu   sync.RWMutex
	data map[string]Entry

	// saveMu serializes snapshot+write so a later save never persists an
	// older snapshot than an earlier one.
	saveMu sync.Mutex

	ttl   time.Duration
	now   func() time.Time
	kv    storage.KV
	group singleflight.Group

	logger  *logs.Logger
	metrics *metrics.Registry
}

// New creates a cache over kv. A nil kv keeps the cache memory-only and a
// non-positive ttl means DefaultTTL.
func New(kv storage.KV, ttl time.Duration, logger *logs.Logger, reg *metrics.Registry) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		data:    make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
		kv:      kv,
		logger:  logger.With("cache"),
		metrics: reg,
	}
}

// SetClock replaces the time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the stored value only if it exists, is not null and is
// fresh. Never-set and expired keys are indistinguishable.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.metrics.Inc(metrics.CacheGetsTotal)

	e, ok, fresh := c.lookup(key)
	switch {
	case !ok:
		c.metrics.Inc(metrics.CacheMissesTotal)
		return nil, false
	case !fresh:
		c.metrics.Inc(metrics.CacheStaleTotal)
		c.metrics.Inc(metrics.CacheMissesTotal)
		return nil, false
	}
	c.metrics.Inc(metrics.CacheHitsTotal)
	return e.Value, true
}

// lookup reports whether key holds a non-null entry and whether it is fresh.
func (c *Cache) lookup(key string) (Entry, bool, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok || e.IsNull() {
		return Entry{}, false, false
	}
	return e, true, e.IsFresh(now, c.ttl)
}

// Set stores value under key with the current time and saves the cache.
// Setting nil stores null, which makes the next Get miss.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("encode %q: %v", key, err)
		return
	}

	c.mu.Lock()
	c.data[key] = Entry{Value: raw, StoredAt: c.now().UnixMilli()}
	size := len(c.data)
	c.mu.Unlock()

	c.metrics.Inc(metrics.CacheSetsTotal)
	c.metrics.Set(metrics.CacheKeys, int64(size))
	c.Save(ctx)
}

// Invalidate evicts key and saves the cache.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	removed := 0
	for _, key := range keys {
		if _, ok := c.data[key]; ok {
			delete(c.data, key)
			removed++
		}
	}
	size := len(c.data)
	c.mu.Unlock()

	if removed == 0 {
		return
	}
	c.metrics.Add(metrics.CacheInvalidationsTotal, int64(removed))
	c.metrics.Set(metrics.CacheKeys, int64(size))
	c.Save(ctx)
}

// Clear wipes every entry from memory and removes the persisted blob.
func (c *Cache) Clear(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	c.data = make(map[string]Entry)
	c.mu.Unlock()
	c.metrics.Set(metrics.CacheKeys, 0)

	if c.kv == nil {
		return
	}
	if err := c.kv.Remove(ctx, StorageKey); err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("clear storage: %v", err)
		return
	}
	c.logger.Info("cache cleared")
}

// KeyInfo describes one entry for admin views.
type KeyInfo struct {
	Key      string        `json:"key"`
	StoredAt time.Time     `json:"storedAt"`
	Age      time.Duration `json:"age"`
	Fresh    bool          `json:"fresh"`
	Null     bool          `json:"null"`
	Bytes    int           `json:"bytes"`
}

// Keys returns a snapshot of every entry, fresh or not, sorted by key.
func (c *Cache) Keys() []KeyInfo {
	c.mu.RLock()
	now := c.now()
	out := make([]KeyInfo, 0, len(c.data))
	for k, e := range c.data {
		out = append(out, KeyInfo{
			Key:      k,
			StoredAt: time.UnixMilli(e.StoredAt),
			Age:      now.Sub(time.UnixMilli(e.StoredAt)),
			Fresh:    !e.IsNull() && e.IsFresh(now, c.ttl),
			Null:     e.IsNull(),
			Bytes:    len(e.Value),
		})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// RemoveExpired drops null entries and entries stored more than
// retention ago, saves when anything was removed and returns the count.
// retention is clamped to at least the TTL so fresh entries survive.
func (c *Cache) RemoveExpired(ctx context.Context, retention time.Duration) int {
	retention = max(retention, c.ttl)

	c.mu.Lock()
	cutoff := c.now().Add(-retention).UnixMilli()
	removed := 0
	for k, e := range c.data {
		if e.IsNull() || e.StoredAt <= cutoff {
			delete(c.data, k)
			removed++
		}
	}
	size := len(c.data)
	c.mu.Unlock()

	if removed == 0 {
		return 0
	}
	c.metrics.Set(metrics.CacheKeys, int64(size))
	c.Save(ctx)
	return removed
}
