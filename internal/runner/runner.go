// Package runner renders the charts of many locations on a bounded worker pool
// and reports every per-location failure after all workers finish.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-charts/internal/logger"
	"github.com/i474232898/weather-charts/internal/metrics"
	"github.com/i474232898/weather-charts/internal/weather"
)

// Stage names the pipeline step a location failed in.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
	StageRender  Stage = "render"
)

// LocationError carries the location context of a pipeline failure.
type LocationError struct {
	Location weather.Location
	Stage    Stage
	Err      error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Location.Key(), e.Stage, e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one location.
type Result struct {
	Location  weather.Location `json:"location"`
	ChartPath string           `json:"chartPath,omitempty"`
	Err       *LocationError   `json:"-"`
	Error     string           `json:"error,omitempty"`
}

// Report summarizes one run over all locations.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Results    []Result  `json:"results"`
}

// Failed returns the errors of the locations that did not produce a chart.
func (r Report) Failed() []*LocationError {
	var out []*LocationError
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

// SeriesSource is satisfied by *weather.Service.
type SeriesSource interface {
	Resolve(ctx context.Context, loc weather.Location) (weather.Location, error)
	Series(ctx context.Context, loc weather.Location) (weather.Series, weather.Reading, error)
}

// ChartRenderer is satisfied by *chart.Renderer.
type ChartRenderer interface {
	Render(loc weather.Location, series weather.Series, current weather.Reading) (string, error)
}

// ReportSink receives finished reports; the memory store implements it.
type ReportSink interface {
	SaveReport(r Report)
}

// Runner fans locations out over a fixed number of workers.
type Runner struct {
	source   SeriesSource
	renderer ChartRenderer
	store    weather.Store
	reports  ReportSink
	workers  int
	timeout  time.Duration
}

// New creates a Runner. store and reports may be nil.
func New(source SeriesSource, renderer ChartRenderer, workers int, store weather.Store, reports ReportSink) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		source:   source,
		renderer: renderer,
		store:    store,
		reports:  reports,
		workers:  workers,
		timeout:  2 * time.Minute,
	}
}

// Run processes every location and waits for all of them.
// Failures are collected in the report, never propagated to sibling tasks.
func (r *Runner) Run(ctx context.Context, locations []weather.Location) Report {
	log := logger.GetLogger()
	report := Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   make([]Result, len(locations)),
	}

	log.Infow("Starting chart run", "runId", report.ID, "locations", len(locations), "workers", r.workers)

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			report.Results[i] = r.processLocation(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	duration := report.FinishedAt.Sub(report.StartedAt)
	metrics.Get().RunDuration.Observe(duration.Seconds())

	failed := report.Failed()
	if len(failed) > 0 {
		keys := make([]string, 0, len(failed))
		for _, f := range failed {
			keys = append(keys, f.Location.Key())
		}
		log.Warnw("Chart run finished with failures",
			"runId", report.ID,
			"failed", len(failed),
			"succeeded", len(locations)-len(failed),
			"failedLocations", strings.Join(keys, ", "),
			"duration", duration)
		for _, f := range failed {
			log.Errorw("Location failed", "runId", report.ID, "location", f.Location.Key(), "stage", f.Stage, "error", f.Err)
		}
	} else {
		log.Infow("Chart run completed", "runId", report.ID, "locations", len(locations), "duration", duration)
	}

	if r.reports != nil {
		r.reports.SaveReport(report)
	}
	return report
}

// processLocation never panics: a panic in any stage becomes that location's error.
func (r *Runner) processLocation(ctx context.Context, loc weather.Location) (res Result) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fail := func(stage Stage, err error) Result {
		metrics.Get().Locations.WithLabelValues("error").Inc()
		le := &LocationError{Location: loc, Stage: stage, Err: err}
		return Result{Location: loc, Err: le, Error: le.Error()}
	}

	stage := StageResolve
	defer func() {
		if p := recover(); p != nil {
			logger.GetLogger().Errorw("Recovered panic", "location", loc.Key(), "stage", stage, "panic", p)
			res = fail(stage, fmt.Errorf("panic: %v", p))
		}
	}()

	resolved, err := r.source.Resolve(ctx, loc)
	if err != nil {
		return fail(StageResolve, err)
	}
	loc = resolved

	stage = StageFetch
	series, current, err := r.source.Series(ctx, loc)
	if err != nil {
		return fail(StageFetch, err)
	}

	stage = StageRender
	path, err := r.renderer.Render(loc, series, current)
	if err != nil {
		return fail(StageRender, err)
	}

	if r.store != nil {
		r.store.SaveSnapshot(weather.SeriesSnapshot{
			Location:  loc,
			Series:    series,
			Current:   current,
			ChartPath: path,
			UpdatedAt: time.Now().UTC(),
		})
	}

	metrics.Get().Locations.WithLabelValues("ok").Inc()
	logger.GetLogger().Debugw("Chart saved", "location", loc.Key(), "path", path)
	return Result{Location: loc, ChartPath: path}
}
