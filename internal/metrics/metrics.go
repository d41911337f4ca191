// Package metrics holds the Prometheus collectors of the chart pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors shared by providers and the runner.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Locations        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// Singleton so tests constructing several providers do not register twice.
var (
	instance        *Metrics
	once            sync.Once
	defaultRegistry = prometheus.DefaultRegisterer
)

// Get returns the process-wide collectors, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		f := promauto.With(defaultRegistry)
		instance = &Metrics{
			ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
				Name: "weather_provider_requests_total",
				Help: "Outbound provider requests by provider, endpoint and outcome",
			}, []string{"provider", "endpoint", "outcome"}),
			ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "weather_provider_request_duration_seconds",
				Help:    "Duration of outbound provider requests including retries",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			}, []string{"provider", "endpoint"}),
			Locations: f.NewCounterVec(prometheus.CounterOpts{
				Name: "weather_chart_locations_total",
				Help: "Processed locations by outcome",
			}, []string{"outcome"}),
			RunDuration: f.NewHistogram(prometheus.HistogramOpts{
				Name:    "weather_chart_run_duration_seconds",
				Help:    "Wall time of a full chart run over all locations",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			}),
		}
	})
	return instance
}
