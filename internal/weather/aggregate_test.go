package weather

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesOf(temps ...float64) []Sample {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Sample, len(temps))
	for i, t := range temps {
		out[i] = Sample{Time: base.Add(time.Duration(i) * time.Hour), Temperature: t}
	}
	return out
}

func TestBucketDropsPartialWindow(t *testing.T) {
	temps := make([]float64, 0, 50)
	for i := 0; i < 50; i++ {
		temps = append(temps, float64(i))
	}

	got, err := Bucket(samplesOf(temps...), HourlyWindow)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Extremes{Min: 0, Max: 23}, got[0])
	assert.Equal(t, Extremes{Min: 24, Max: 47}, got[1])
}

func TestBucketExtremesIgnorePosition(t *testing.T) {
	got, err := Bucket(samplesOf(3, -7.5, 12, 0, 4, 12, -7.5, 1), ForecastWindow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Extremes{Min: -7.5, Max: 12}, got[0])
}

func TestBucketShortInput(t *testing.T) {
	got, err := Bucket(samplesOf(1, 2, 3), HourlyWindow)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Bucket(nil, ForecastWindow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBucketRejectsNonPositiveWindow(t *testing.T) {
	_, err := Bucket(samplesOf(1, 2), 0)
	assert.Error(t, err)

	_, err = Bucket(samplesOf(1, 2), -3)
	assert.Error(t, err)
}

func daysFrom(start time.Time, n int) []DailyAggregate {
	out := make([]DailyAggregate, n)
	for i := range out {
		out[i] = DailyAggregate{Date: start.Add(time.Duration(i) * 24 * time.Hour), Min: float64(i), Max: float64(i + 1)}
	}
	return out
}

func TestAssembleOrdersHistoryBeforeForecast(t *testing.T) {
	anchor := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	history := daysFrom(anchor.Add(-4*24*time.Hour), HistoryDays)
	forecast := daysFrom(anchor.Add(24*time.Hour), ForecastDays)

	series, err := Assemble(forecast, history)
	require.NoError(t, err)
	require.Len(t, series, HistoryDays+ForecastDays)

	assert.Equal(t, history[0].Date, series[0].Date)
	assert.Equal(t, anchor, series[HistoryDays-1].Date)
	assert.Equal(t, forecast[ForecastDays-1].Date, series[len(series)-1].Date)

	dates := series.Dates()
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "date %d not increasing", i)
	}
	assert.Len(t, series.Mins(), 10)
	assert.Len(t, series.Maxs(), 10)
}

func TestAssembleRejectsWrongLengths(t *testing.T) {
	anchor := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)

	_, err := Assemble(daysFrom(anchor, 4), daysFrom(anchor.Add(-10*24*time.Hour), HistoryDays))
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	_, err = Assemble(daysFrom(anchor, ForecastDays), daysFrom(anchor.Add(-10*24*time.Hour), 6))
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestAssembleRejectsOverlap(t *testing.T) {
	anchor := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	history := daysFrom(anchor, HistoryDays)
	forecast := daysFrom(anchor, ForecastDays)

	_, err := Assemble(forecast, history)
	assert.Error(t, err)
}
