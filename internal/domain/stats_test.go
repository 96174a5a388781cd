package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	m "gooze.dev/pkg/crucible/internal/model"
)

func TestRunTimings(t *testing.T) {
	timings := newRunTimings()
	assert.Equal(t, m.Timing{}, timings.Timing())

	for i := 1; i <= 100; i++ {
		timings.Add(time.Duration(i) * time.Millisecond)
	}

	got := timings.Timing()
	assert.Equal(t, 100, got.Runs)
	assert.Equal(t, 100*time.Millisecond, got.Max)
	assert.InDelta(t, float64(50*time.Millisecond), float64(got.P50), float64(3*time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(got.P95), float64(3*time.Millisecond))
}
