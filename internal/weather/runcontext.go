package weather

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrMalformedResponse marks provider payloads that do not have the expected shape.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrAnchorUnset is returned when forecast dates are requested before history
	// established the current reading.
	ErrAnchorUnset = errors.New("current reading not established; run history first")
)

// RunContext carries the current reading shared by the history and forecast
// aggregation of one location. The first reading established wins.
type RunContext struct {
	mu      sync.Mutex
	current *Reading
}

func NewRunContext() *RunContext {
	return &RunContext{}
}

// Establish records r unless a reading is already set, and returns the reading in effect.
func (rc *RunContext) Establish(r Reading) Reading {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.current == nil {
		r.Time = r.Time.UTC()
		rc.current = &r
	}
	return *rc.current
}

// Current returns the established reading, if any.
func (rc *RunContext) Current() (Reading, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.current == nil {
		return Reading{}, false
	}
	return *rc.current, true
}

// Anchor is the reference time for date labels: 12 hours before the current reading.
func (rc *RunContext) Anchor() (time.Time, error) {
	cur, ok := rc.Current()
	if !ok {
		return time.Time{}, ErrAnchorUnset
	}
	return cur.Time.Add(-anchorOffset), nil
}
