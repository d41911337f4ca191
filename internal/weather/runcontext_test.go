package weather

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContextFirstReadingWins(t *testing.T) {
	rc := NewRunContext()

	_, ok := rc.Current()
	assert.False(t, ok)
	_, err := rc.Anchor()
	assert.ErrorIs(t, err, ErrAnchorUnset)

	first := Reading{Time: time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), Temperature: 11.5}
	second := Reading{Time: first.Time.Add(-24 * time.Hour), Temperature: -2}

	assert.Equal(t, first, rc.Establish(first))
	assert.Equal(t, first, rc.Establish(second))

	anchor, err := rc.Anchor()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), anchor)
}

func TestRunContextConcurrentEstablish(t *testing.T) {
	rc := NewRunContext()
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rc.Establish(Reading{Time: base.Add(time.Duration(i) * time.Hour), Temperature: float64(i)})
		}(i)
	}
	wg.Wait()

	cur, ok := rc.Current()
	require.True(t, ok)
	// Whichever goroutine won, later calls must observe the same value.
	assert.Equal(t, cur, rc.Establish(Reading{Time: base.Add(99 * time.Hour)}))
}
