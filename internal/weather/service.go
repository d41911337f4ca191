package weather

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/i474232898/weather-charts/internal/logger"
)

const day = 24 * time.Hour

// Service turns provider data into the 10-day series of a location.
type Service struct {
	provider Provider
	geocoder Geocoder
	now      func() time.Time
}

// NewService creates a new Service. geocoder may be nil when every location
// carries its own coordinate.
func NewService(provider Provider, geocoder Geocoder) *Service {
	return &Service{
		provider: provider,
		geocoder: geocoder,
		now:      time.Now,
	}
}

// Resolve fills in the coordinate of loc when it is missing.
func (s *Service) Resolve(ctx context.Context, loc Location) (Location, error) {
	if loc.Coordinate != nil {
		return loc, nil
	}
	if s.geocoder == nil {
		return loc, fmt.Errorf("location %s has no coordinate and no geocoder is configured", loc.Key())
	}

	coord, err := s.geocoder.Geocode(ctx, loc)
	if err != nil {
		return loc, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}
	logger.GetLogger().Debugw("Resolved location", "location", loc.Key(), "coordinate", coord.String())
	loc.Coordinate = &coord
	return loc, nil
}

// Series fetches history first, which establishes the current reading and the
// anchor, then the forecast, and assembles both into one chronological series.
func (s *Service) Series(ctx context.Context, loc Location) (Series, Reading, error) {
	if loc.Coordinate == nil {
		return nil, Reading{}, fmt.Errorf("location %s has no coordinate", loc.Key())
	}
	coord := *loc.Coordinate
	rc := NewRunContext()

	history, err := s.History(ctx, coord, HistoryDays, rc)
	if err != nil {
		return nil, Reading{}, fmt.Errorf("history: %w", err)
	}

	forecast, err := s.Forecast(ctx, coord, rc)
	if err != nil {
		return nil, Reading{}, fmt.Errorf("forecast: %w", err)
	}

	series, err := Assemble(forecast, history)
	if err != nil {
		return nil, Reading{}, err
	}

	current, _ := rc.Current()
	return series, current, nil
}

// History pages backwards one day at a time, starting a day before now, until enough hourly samples
// exist for days aggregates. The first page consumed establishes rc.
// Aggregates are returned oldest first; the newest one is dated at the anchor.
func (s *Service) History(ctx context.Context, coord Coordinate, days int, rc *RunContext) ([]DailyAggregate, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}
	if rc == nil {
		return nil, errors.New("run context is required")
	}

	var (
		now      = s.now().UTC()
		need     = days * HourlyWindow
		maxPages = days + 2
		buffer   = make([]Sample, 0, need+HourlyWindow)
	)

	for page := 0; len(buffer) < need; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("%w: %d history pages yielded %d of %d hourly samples",
				ErrMalformedResponse, page, len(buffer), need)
		}

		// Page 0 covers the 24 hours ending one day ago.
		at := now.Add(-time.Duration(page+1) * day)
		p, err := s.provider.FetchHistory(ctx, coord, at)
		if err != nil {
			return nil, fmt.Errorf("history page %d: %w", page, err)
		}
		if len(p.Hourly) == 0 {
			return nil, fmt.Errorf("%w: history page %d has no hourly samples", ErrMalformedResponse, page)
		}

		rc.Establish(p.Current)

		// Newest first, so the first window is the most recent day.
		for i := len(p.Hourly) - 1; i >= 0; i-- {
			buffer = append(buffer, p.Hourly[i])
		}
	}

	anchor, err := rc.Anchor()
	if err != nil {
		return nil, err
	}

	buckets, err := Bucket(buffer[:need], HourlyWindow)
	if err != nil {
		return nil, err
	}

	out := make([]DailyAggregate, 0, len(buckets))
	for i, b := range buckets {
		out = append(out, DailyAggregate{
			Date: anchor.Add(-time.Duration(i) * day),
			Min:  b.Min,
			Max:  b.Max,
		})
	}
	slices.Reverse(out)
	return out, nil
}

// Forecast reduces the first 5 days of 3-hour samples into daily aggregates dated
// anchor+1d .. anchor+5d. rc must already be established by History.
func (s *Service) Forecast(ctx context.Context, coord Coordinate, rc *RunContext) ([]DailyAggregate, error) {
	if rc == nil {
		return nil, errors.New("run context is required")
	}
	anchor, err := rc.Anchor()
	if err != nil {
		return nil, err
	}

	samples, err := s.provider.FetchForecast(ctx, coord)
	if err != nil {
		return nil, err
	}

	need := ForecastDays * ForecastWindow
	if len(samples) < need {
		return nil, fmt.Errorf("%w: forecast has %d samples, need %d", ErrMalformedResponse, len(samples), need)
	}

	buckets, err := Bucket(samples[:need], ForecastWindow)
	if err != nil {
		return nil, err
	}

	out := make([]DailyAggregate, 0, len(buckets))
	for i, b := range buckets {
		out = append(out, DailyAggregate{
			Date: anchor.Add(time.Duration(i+1) * day),
			Min:  b.Min,
			Max:  b.Max,
		})
	}
	return out, nil
}
