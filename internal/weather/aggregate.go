package weather

import (
	"fmt"
	"time"
)

// Bucket partitions samples into consecutive non-overlapping windows and reduces
// each window to its extremes. A trailing partial window is dropped, so the result
// always has len(samples)/window entries.
func Bucket(samples []Sample, window int) ([]Extremes, error) {
	if window <= 0 {
		return nil, fmt.Errorf("bucket window must be positive, got %d", window)
	}

	out := make([]Extremes, 0, len(samples)/window)
	for start := 0; start+window <= len(samples); start += window {
		out = append(out, extremesOf(samples[start:start+window]))
	}
	return out, nil
}

func extremesOf(samples []Sample) Extremes {
	e := Extremes{Min: samples[0].Temperature, Max: samples[0].Temperature}
	for _, s := range samples[1:] {
		if s.Temperature < e.Min {
			e.Min = s.Temperature
		}
		if s.Temperature > e.Max {
			e.Max = s.Temperature
		}
	}
	return e
}

// Assemble joins the future and past aggregates into one chronological series.
// Both inputs are expected oldest first; the result is history followed by forecast.
func Assemble(forecast, history []DailyAggregate) (Series, error) {
	if len(forecast) != ForecastDays {
		return nil, fmt.Errorf("%w: expected %d forecast days, got %d", ErrMalformedResponse, ForecastDays, len(forecast))
	}
	if len(history) != HistoryDays {
		return nil, fmt.Errorf("%w: expected %d history days, got %d", ErrMalformedResponse, HistoryDays, len(history))
	}

	series := make(Series, 0, len(history)+len(forecast))
	series = append(series, history...)
	series = append(series, forecast...)

	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			return nil, fmt.Errorf("series out of order at %d: %s is not after %s",
				i, series[i].Date.Format(time.RFC3339), series[i-1].Date.Format(time.RFC3339))
		}
	}
	return series, nil
}
