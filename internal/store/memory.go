package store

import (
	"errors"
	"sync"

	"github.com/i474232898/weather-charts/internal/runner"
	"github.com/i474232898/weather-charts/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// MemoryStore is a concurrency-safe in-memory store of the latest series per
// location and the most recent run reports. Nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: latest snapshot
	latest map[string]weather.SeriesSnapshot

	reports    []runner.Report
	maxHistory int // max number of run reports kept
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, reports are kept without limit.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		latest:     make(map[string]weather.SeriesSnapshot),
		maxHistory: maxHistory,
	}
}

// SaveSnapshot replaces the latest snapshot of a location.
func (s *MemoryStore) SaveSnapshot(snapshot weather.SeriesSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[snapshot.Location.Key()] = snapshot
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.SeriesSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.latest[loc.Key()]
	if !ok {
		return weather.SeriesSnapshot{}, ErrNotFound
	}
	return snap, nil
}

// SaveReport appends a run report and enforces retention.
func (s *MemoryStore) SaveReport(r runner.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, r)
	if s.maxHistory > 0 && len(s.reports) > s.maxHistory {
		over := len(s.reports) - s.maxHistory
		s.reports = s.reports[over:]
	}
}

// LatestReport returns the most recent run report.
func (s *MemoryStore) LatestReport() (runner.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return runner.Report{}, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}
