package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-charts/internal/weather"
)

var errNoGeocodeResult = errors.New("no geocoding result")

// GoogleGeocoder resolves city/country labels through the Google Geocoding API.
type GoogleGeocoder struct {
	// geocoder keeps its key in a package variable.
	mu     sync.Mutex
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey: apiKey,
		lookup: geocoder.Geocoding,
	}
}

type geocodeResult struct {
	loc geocoder.Location
	err error
}

// Geocode honours ctx even though the geocoder library takes no context and
// uses an http.Client without timeout: a lookup still running when ctx ends is
// abandoned and its result dropped.
func (g *GoogleGeocoder) Geocode(ctx context.Context, loc weather.Location) (weather.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}
	if g.apiKey == "" {
		return weather.Coordinate{}, fmt.Errorf("geocoder api key is not configured")
	}

	g.mu.Lock()
	geocoder.ApiKey = g.apiKey
	g.mu.Unlock()

	done := make(chan geocodeResult, 1)
	go func() {
		res, err := g.lookup(geocoder.Address{
			City:    loc.City,
			Country: loc.Country,
		})
		done <- geocodeResult{loc: res, err: err}
	}()

	var out geocodeResult
	select {
	case <-ctx.Done():
		return weather.Coordinate{}, ctx.Err()
	case out = <-done:
	}
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}

	if out.err != nil {
		return weather.Coordinate{}, out.err
	}
	if out.loc.Latitude == 0 && out.loc.Longitude == 0 {
		return weather.Coordinate{}, fmt.Errorf("%w for %s", errNoGeocodeResult, loc.Key())
	}

	return weather.Coordinate{Lat: out.loc.Latitude, Lon: out.loc.Longitude}, nil
}
