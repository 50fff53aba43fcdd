package jobs

import (
	"context"
	"errors"

	"oma-gateway/internal/orders"
)

type Preloader interface {
	Preload(ctx context.Context) error
}

type DashboardRefresher interface {
	Dashboard(ctx context.Context, force bool) (orders.Dashboard, error)
}

// Schedules holds the cron specs of the warm-up jobs. An empty spec
// disables its job.
type Schedules struct {
	Preload   string
	Dashboard string
}

// RegisterWarmup adds the preload and dashboard refresh jobs.
func RegisterWarmup(s *Scheduler, sch Schedules, p Preloader, d DashboardRefresher) error {
	var errs []error
	if sch.Preload != "" {
		errs = append(errs, s.Add("preload", sch.Preload, p.Preload))
	}
	if sch.Dashboard != "" {
		errs = append(errs, s.Add("dashboard", sch.Dashboard, func(ctx context.Context) error {
			_, err := d.Dashboard(ctx, false)
			return err
		}))
	}
	return errors.Join(errs...)
}
