package pipeline

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// RunFunc performs one scheduled batch run and reports aggregate stats.
type RunFunc func(ctx context.Context) (BatchStats, error)

// Scheduler drives periodic ProcessingConfig.Schedule runs of a BatchRunner
// via a cron expression.
type Scheduler struct {
	run    RunFunc
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewScheduler creates a new pipeline scheduler around run.
func NewScheduler(run RunFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		run:    run,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start begins the scheduled processing. An empty schedule defaults to
// every 6 hours.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runOnce()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("pipeline scheduler started")
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("pipeline scheduler stopped")
}

// RunNow triggers an immediate out-of-schedule run.
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("triggering immediate pipeline run")
	go s.runOnce()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info().Msg("starting scheduled pipeline run")

	stats, err := s.run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled pipeline run failed")
		return
	}

	s.logger.Info().
		Int("processed", stats.Processed).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("scheduled pipeline run completed")
}
