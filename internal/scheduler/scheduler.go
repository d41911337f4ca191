package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-charts/internal/logger"
	"github.com/i474232898/weather-charts/internal/runner"
	"github.com/i474232898/weather-charts/internal/weather"
)

// ChartRunner is satisfied by *runner.Runner.
type ChartRunner interface {
	Run(ctx context.Context, locations []weather.Location) runner.Report
}

// Scheduler periodically re-renders the charts of the configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    ChartRunner
	locations []weather.Location
	interval  time.Duration
	ctx       context.Context
}

// New creates a new Scheduler. ctx bounds every scheduled run.
func New(ctx context.Context, locations []weather.Location, interval time.Duration, r ChartRunner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    r,
		locations: locations,
		interval:  interval,
		ctx:       ctx,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run starts immediately.
func (s *Scheduler) Start() error {
	log := logger.GetLogger()
	if len(s.locations) == 0 {
		log.Warn("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 3 * time.Hour
	}

	// SingletonMode skips a tick while the previous run is still going.
	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		log.Infow("scheduler: running chart job", "interval", interval)
		report := s.runner.Run(s.ctx, s.locations)
		log.Infow("scheduler: completed chart job", "runId", report.ID, "failed", len(report.Failed()))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
