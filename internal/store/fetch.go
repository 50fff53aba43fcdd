package store

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"oma-gateway/internal/metrics"
)

// GetAs is Get decoded into T. A value that does not decode is a miss.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Debugf("decode %q: %v", key, err)
		var zero T
		return zero, false
	}
	return out, true
}

// Fetch is the cache-aside helper: a fresh hit is returned without calling
// load; otherwise load runs once per key no matter how many callers are
// waiting, and its result is cached. Load errors are returned and nothing
// is cached. The load is detached from ctx cancellation; a caller whose ctx
// ends stops waiting without failing the other callers.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := GetAs[T](c, key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that just finished may have filled the key
		if e, ok, fresh := c.lookup(key); ok && fresh {
			var v T
			if err := json.Unmarshal(e.Value, &v); err == nil {
				return v, nil
			}
		}

		lctx := context.WithoutCancel(ctx)
		c.metrics.Inc(metrics.CacheLoadsTotal)
		v, err := load(lctx)
		if err != nil {
			return v, err
		}
		c.Set(lctx, key, v)
		return v, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if res.Err != nil {
		return zero, res.Err
	}
	if res.Shared {
		c.logger.Debugf("shared in-flight load for %q", key)
	}

	if v, ok := res.Val.(T); ok {
		return v, nil
	}
	// a concurrent caller loaded the same key as another type
	if v, ok := GetAs[T](c, key); ok {
		return v, nil
	}
	return zero, fmt.Errorf("cache key %q: loaded %T, want %T", key, res.Val, zero)
}
