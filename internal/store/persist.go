package store

import (
	"context"
	"encoding/json"

	"oma-gateway/internal/metrics"
)

// blob is the persisted form: values and their timestamps in two maps.
type blob struct {
	Data      map[string]json.RawMessage `json:"data"`
	Timestamp map[string]int64           `json:"timestamp"`
}

// Save serializes the whole cache into storage.
func (c *Cache) Save(ctx context.Context) {
	if c.kv == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.RLock()
	b := blob{
		Data:      make(map[string]json.RawMessage, len(c.data)),
		Timestamp: make(map[string]int64, len(c.data)),
	}
	for k, e := range c.data {
		b.Data[k] = e.Value
		b.Timestamp[k] = e.StoredAt
	}
	c.mu.RUnlock()

	raw, err := json.Marshal(b)
	if err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("encode cache blob: %v", err)
		return
	}
	if err := c.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("save cache: %v", err)
	}
}

// Load replaces the in-memory cache with the persisted blob. A missing
// blob leaves the cache untouched; so does an unreadable one.
func (c *Cache) Load(ctx context.Context) {
	if c.kv == nil {
		return
	}
	raw, found, err := c.kv.Get(ctx, StorageKey)
	if err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("load cache: %v", err)
		return
	}
	if !found {
		c.logger.Debug("no persisted cache")
		return
	}

	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		c.metrics.Inc(metrics.CacheStorageErrorsTotal)
		c.logger.Warnf("decode cache blob: %v", err)
		return
	}

	data := make(map[string]Entry, len(b.Data))
	for k, v := range b.Data {
		// a key without a timestamp is treated as stored at epoch: stale
		data[k] = Entry{Value: v, StoredAt: b.Timestamp[k]}
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()

	c.metrics.Set(metrics.CacheKeys, int64(len(data)))
	c.logger.Infof("loaded %d cached entries", len(data))
}
