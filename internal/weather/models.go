package weather

import (
	"fmt"
	"time"
)

const (
	// HistoryDays and ForecastDays make up the fixed 10-day chart window.
	HistoryDays  = 5
	ForecastDays = 5

	// HourlyWindow is the number of hourly samples reduced into one past day.
	HourlyWindow = 24
	// ForecastWindow is the number of 3-hour samples reduced into one future day.
	ForecastWindow = 8

	// anchorOffset places the anchor in the middle of the last observed 24 hours.
	anchorOffset = 12 * time.Hour
)

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Location is a labelled place we render a chart for.
// Region and City name the output directory; Country only helps geocoding.
type Location struct {
	Region     string      `json:"region"`
	City       string      `json:"city"`
	Country    string      `json:"country,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Region + "/" + l.City
}

// Sample is a single temperature reading, hourly or 3-hourly depending on the source.
type Sample struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperatureC"`
}

// Reading is the current temperature used as the reference marker on a chart.
type Reading struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperatureC"`
}

// Extremes is the reduction of one window of samples.
type Extremes struct {
	Min float64
	Max float64
}

// DailyAggregate is the min/max temperature of one day.
type DailyAggregate struct {
	Date time.Time `json:"date"`
	Min  float64   `json:"minC"`
	Max  float64   `json:"maxC"`
}

// Series is the 10-day window for one location, ordered oldest to newest.
type Series []DailyAggregate

// Dates, Mins and Maxs split the series into chart columns.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, d := range s {
		out[i] = d.Date
	}
	return out
}

func (s Series) Mins() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = d.Min
	}
	return out
}

func (s Series) Maxs() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = d.Max
	}
	return out
}

// SeriesSnapshot is the outcome of one successful location pipeline.
type SeriesSnapshot struct {
	Location  Location  `json:"location"`
	Series    Series    `json:"series"`
	Current   Reading   `json:"current"`
	ChartPath string    `json:"chartPath"`
	UpdatedAt time.Time `json:"updatedAt"`
}
