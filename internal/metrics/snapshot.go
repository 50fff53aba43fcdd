package metrics

import "sync/atomic"

// Snapshot reads every registered counter and gauge into a plain map keyed
// by metric name, the shape served on /metrics and read by the health
// rules. A nil registry yields an empty map.
func (r *Registry) Snapshot() map[string]int64 {
	values := map[string]int64{}
	if r == nil {
		return values
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, v := range r.counters {
		values[string(name)] = atomic.LoadInt64(v)
	}
	return values
}
