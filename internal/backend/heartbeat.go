package backend

import (
	"context"
	"time"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

// Waker pings the backend root. *sheets.Client implements it.
type Waker interface {
	WakeUp(ctx context.Context) (time.Duration, error)
}

// Heartbeat periodically wakes the backend and reports the outcome to a
// Monitor.
type Heartbeat struct {
	waker    Waker
	monitor  *Monitor
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry
}

func NewHeartbeat(w Waker, m *Monitor, interval time.Duration, logger *logs.Logger, reg *metrics.Registry) *Heartbeat {
	return &Heartbeat{
		waker:    w,
		monitor:  m,
		interval: interval,
		logger:   logger.With("heartbeat"),
		metrics:  reg,
	}
}

// Start runs the keep-alive loop until ctx is cancelled. The first ping
// happens one interval after start.
func (h *Heartbeat) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Infof("keep-alive every %s", h.interval)
	for {
		select {
		case <-ticker.C:
			h.RunOnce(ctx)
		case <-ctx.Done():
			h.logger.Debug("keep-alive stopped")
			return
		}
	}
}

// RunOnce pings the backend once.
func (h *Heartbeat) RunOnce(ctx context.Context) {
	h.metrics.Inc(metrics.HeartbeatRunsTotal)

	latency, err := h.waker.WakeUp(ctx)
	if err != nil {
		h.metrics.Inc(metrics.HeartbeatFailuresTotal)
		h.monitor.MarkFailure(err)
		h.logger.Warnf("keep-alive ping failed: %v", err)
		return
	}
	h.metrics.Inc(metrics.HeartbeatSuccessTotal)
	h.monitor.MarkSuccess(latency)
	h.logger.Debugf("keep-alive ping took %s", latency)
}
