package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-charts/internal/metrics"
	"github.com/i474232898/weather-charts/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

	forecastPath    = "/data/2.5/forecast"
	timemachinePath = "/data/2.5/onecall/timemachine"
)

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap's
// 5 day / 3 hour forecast and One Call timemachine endpoints.
type OpenWeatherProvider struct {
	name            string
	apiKey          string
	baseURL         string
	httpCfg         HTTPClientConfig
	forecastCircuit *gobreaker.CircuitBreaker
	historyCircuit  *gobreaker.CircuitBreaker
}

// Option customizes an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at another host, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(p *OpenWeatherProvider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLimiter guards every outbound call with a shared token bucket.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.Limiter = l
	}
}

func WithBackoff(b BackoffConfig) Option {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.Backoff = b
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherBaseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		forecastCircuit: newCircuitBreaker("openweather-forecast"),
		historyCircuit:  newCircuitBreaker("openweather-timemachine"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmForecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

type owmPoint struct {
	Dt   int64    `json:"dt"`
	Temp *float64 `json:"temp"`
}

type owmTimemachinePayload struct {
	Current *owmPoint  `json:"current"`
	Hourly  []owmPoint `json:"hourly"`
}

// FetchForecast returns the 3-hour temperature samples, soonest first.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, coord weather.Coordinate) ([]weather.Sample, error) {
	values := p.baseValues(coord)

	resp, err := p.get(ctx, "forecast", forecastPath, values, p.forecastCircuit)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload owmForecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode forecast: %v", weather.ErrMalformedResponse, err)
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("%w: forecast list is empty", weather.ErrMalformedResponse)
	}

	samples := make([]weather.Sample, 0, len(payload.List))
	for i, entry := range payload.List {
		if entry.Main.Temp == nil {
			return nil, fmt.Errorf("%w: forecast list[%d] has no main.temp", weather.ErrMalformedResponse, i)
		}
		samples = append(samples, weather.Sample{
			Time:        time.Unix(entry.Dt, 0).UTC(),
			Temperature: *entry.Main.Temp,
		})
	}
	return samples, nil
}

// FetchHistory returns the timemachine page for at.
func (p *OpenWeatherProvider) FetchHistory(ctx context.Context, coord weather.Coordinate, at time.Time) (weather.HistoryPage, error) {
	values := p.baseValues(coord)
	values.Set("dt", strconv.FormatInt(at.Unix(), 10))

	resp, err := p.get(ctx, "timemachine", timemachinePath, values, p.historyCircuit)
	if err != nil {
		return weather.HistoryPage{}, err
	}
	defer resp.Body.Close()

	var payload owmTimemachinePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.HistoryPage{}, fmt.Errorf("%w: decode timemachine: %v", weather.ErrMalformedResponse, err)
	}
	if payload.Current == nil || payload.Current.Dt == 0 || payload.Current.Temp == nil {
		return weather.HistoryPage{}, fmt.Errorf("%w: timemachine response has no current dt/temp", weather.ErrMalformedResponse)
	}

	page := weather.HistoryPage{
		Current: weather.Reading{
			Time:        time.Unix(payload.Current.Dt, 0).UTC(),
			Temperature: *payload.Current.Temp,
		},
		Hourly: make([]weather.Sample, 0, len(payload.Hourly)),
	}
	for i, h := range payload.Hourly {
		if h.Temp == nil {
			return weather.HistoryPage{}, fmt.Errorf("%w: timemachine hourly[%d] has no temp", weather.ErrMalformedResponse, i)
		}
		page.Hourly = append(page.Hourly, weather.Sample{
			Time:        time.Unix(h.Dt, 0).UTC(),
			Temperature: *h.Temp,
		})
	}
	return page, nil
}

func (p *OpenWeatherProvider) baseValues(coord weather.Coordinate) url.Values {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", coord.Lat))
	values.Set("lon", fmt.Sprintf("%f", coord.Lon))
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)
	return values
}

func (p *OpenWeatherProvider) get(
	ctx context.Context,
	endpoint, path string,
	values url.Values,
	cb *gobreaker.CircuitBreaker,
) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	start := time.Now()
	resp, err := doRequestWithResilience(ctx, p.httpCfg, cb, buildRequest)

	m := metrics.Get()
	m.ProviderLatency.WithLabelValues(p.name, endpoint).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequests.WithLabelValues(p.name, endpoint, outcome).Inc()

	if err != nil {
		return nil, fmt.Errorf("openweather %s: %w", endpoint, err)
	}
	return resp, nil
}
