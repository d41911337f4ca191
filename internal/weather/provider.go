package weather

import (
	"context"
	"time"
)

// HistoryPage is one timemachine response: the reading at the requested time and
// the hourly samples of that day, in the order the provider returned them.
type HistoryPage struct {
	Current Reading
	Hourly  []Sample
}

// Provider abstracts the weather data source (OpenWeatherMap in production, fakes in tests).
type Provider interface {
	Name() string
	// FetchForecast returns 3-hour samples, soonest first.
	FetchForecast(ctx context.Context, coord Coordinate) ([]Sample, error)
	// FetchHistory returns the page for the day containing at.
	FetchHistory(ctx context.Context, coord Coordinate, at time.Time) (HistoryPage, error)
}

// Geocoder resolves a location label into a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, loc Location) (Coordinate, error)
}

// Store is the contract the in-memory store must satisfy.
type Store interface {
	SaveSnapshot(snapshot SeriesSnapshot)
	GetLatest(loc Location) (SeriesSnapshot, error)
}
