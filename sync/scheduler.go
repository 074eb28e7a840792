// ABOUTME: Cron scheduling for recurring Google Contacts imports
// ABOUTME: Runs one job per schedule tick and never overlaps runs
package sync

import (
	"context"
	"fmt"

	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule imports every six hours.
const DefaultSchedule = "0 */6 * * *"

// Job is one scheduled import.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers job under a standard five-field cron spec.
// Runs that would overlap a still-running import are skipped.
func NewScheduler(ctx context.Context, spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		logger.Info("scheduled import starting")
		if err := job(ctx); err != nil {
			logger.Error("scheduled import failed", zap.Error(err))
			return
		}
		logger.Info("scheduled import finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("next import scheduled", zap.Time("at", e.Next))
	}
	<-ctx.Done()
	<-s.cron.Stop().Done()
}
