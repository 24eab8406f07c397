package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRunner triggers the canned queries
type DefaultRunner interface {
	RunDefaultQueries() error
}

// Refresher re-runs the default queries on a cron schedule
type Refresher struct {
	runner   DefaultRunner
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

// NewRefresher creates a refresher for a standard 5-field cron schedule
// evaluated in the given IANA timezone.
func NewRefresher(runner DefaultRunner, schedule, timezone string, log *zap.Logger) (*Refresher, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh timezone %q: %w", timezone, err)
	}

	r := &Refresher{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(loc)),
		log:      log.Named("worker"),
	}
	if _, err := r.cron.AddFunc(schedule, r.Refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start starts the scheduler
func (r *Refresher) Start() {
	r.cron.Start()
	r.log.Info("scheduled default query refresh", zap.String("schedule", r.schedule))
}

// Stop stops the scheduler and waits for a running job to return
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("stopped")
}

// Refresh runs one refresh. A refresh that finds defaults still in flight is skipped.
func (r *Refresher) Refresh() {
	err := r.runner.RunDefaultQueries()
	switch {
	case err == nil:
		r.log.Info("refreshing default queries")
	case errors.Is(err, dispatch.ErrDefaultsPending):
		r.log.Info("skipping refresh, default queries still pending")
	default:
		r.log.Error("refresh failed", zap.Error(err))
	}
}
