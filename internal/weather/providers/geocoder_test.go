package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-charts/internal/weather"
)

func TestGoogleGeocoder(t *testing.T) {
	g := NewGoogleGeocoder("geo-key")

	var got geocoder.Address
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		got = a
		return geocoder.Location{Latitude: 35.68, Longitude: 139.69}, nil
	}

	coord, err := g.Geocode(context.Background(), weather.Location{Region: "Asia", City: "Tokyo", Country: "Japan"})
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinate{Lat: 35.68, Lon: 139.69}, coord)
	assert.Equal(t, "Tokyo", got.City)
	assert.Equal(t, "Japan", got.Country)
	assert.Equal(t, "geo-key", geocoder.ApiKey)
}

func TestGoogleGeocoderErrors(t *testing.T) {
	loc := weather.Location{Region: "Nowhere", City: "Atlantis"}

	_, err := NewGoogleGeocoder("").Geocode(context.Background(), loc)
	assert.Error(t, err)

	g := NewGoogleGeocoder("geo-key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, nil
	}
	_, err = g.Geocode(context.Background(), loc)
	assert.ErrorIs(t, err, errNoGeocodeResult)

	boom := errors.New("quota exceeded")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, boom
	}
	_, err = g.Geocode(context.Background(), loc)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Geocode(ctx, loc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGoogleGeocoderHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := NewGoogleGeocoder("geo-key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		if a.City == "Paris" {
			<-release
		}
		return geocoder.Location{Latitude: 52.52, Longitude: 13.4}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Geocode(ctx, weather.Location{Region: "Europe", City: "Paris"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// The abandoned lookup does not hold up the next one.
	coord, err := g.Geocode(context.Background(), weather.Location{Region: "Europe", City: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, 52.52, coord.Lat)
}
