// Package jobs runs the periodic cache warm-up work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

// Func is one unit of scheduled work. Errors are logged and counted.
type Func func(ctx context.Context) error

// Scheduler wraps a cron runner whose jobs share a base context.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logs.Logger
	metrics *metrics.Registry
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler evaluating schedules in loc.
func New(loc *time.Location, logger *logs.Logger, reg *metrics.Registry) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		logger:  logger.With("jobs"),
		metrics: reg,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers fn under name on spec (standard five-field or
// descriptors such as "@every 5m").
func (s *Scheduler) Add(name, spec string, fn Func) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Run(s.ctx, name, fn) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.logger.Infof("scheduled %s %q", name, spec)
	return nil
}

// Run executes fn once with panic protection.
func (s *Scheduler) Run(ctx context.Context, name string, fn Func) {
	s.metrics.Inc(metrics.JobRunsTotal)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		s.metrics.Inc(metrics.JobFailuresTotal)
		s.logger.Errorf("job %s failed after %s: %v", name, time.Since(start), err)
		return
	}
	s.logger.Debugf("job %s done in %s", name, time.Since(start))
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// jobs to return.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
