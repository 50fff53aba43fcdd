// Package ttl prunes response-cache entries that have been stale for
// longer than a retention period, so the persisted blob does not keep
// growing with keys nobody reads any more.
package ttl

import (
	"context"
	"time"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

// DefaultRetention keeps stale entries for a day.
const DefaultRetention = 24 * time.Hour

// Store is the part of the cache the cleaner needs.
type Store interface {
	RemoveExpired(ctx context.Context, retention time.Duration) int
}

// Cleaner periodically removes long-expired keys from the store.
type Cleaner struct {
	store     Store
	interval  time.Duration
	retention time.Duration
	logger    *logs.Logger
	metrics   *metrics.Registry
}

func NewCleaner(store Store, interval, retention time.Duration, logger *logs.Logger, reg *metrics.Registry) *Cleaner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cleaner{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger.With("ttl"),
		metrics:   reg,
	}
}

// Start runs the cleanup loop until ctx is cancelled. It blocks.
func (c *Cleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runOnce(ctx)
		case <-ctx.Done():
			c.logger.Debug("ttl cleaner stopped")
			return
		}
	}
}

func (c *Cleaner) runOnce(ctx context.Context) {
	c.metrics.Inc(metrics.TTLCleanupRunsTotal)
	removed := c.store.RemoveExpired(ctx, c.retention)
	if removed > 0 {
		c.metrics.Add(metrics.TTLKeysRemovedTotal, int64(removed))
		c.logger.Infof("removed %d cache keys stale for over %s", removed, c.retention)
	}
}
