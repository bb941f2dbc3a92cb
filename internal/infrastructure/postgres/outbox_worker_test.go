package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeNextRetry_BoundsAndJitter(t *testing.T) {
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{-3, 5 * time.Second},  // negative attempts clamp to the floor
		{0, 5 * time.Second},   // 2^0 < floor
		{2, 5 * time.Second},   // 2^2 < floor
		{3, 8 * time.Second},
		{6, 64 * time.Second},
		{10, 1024 * time.Second},
		{11, 1800 * time.Second}, // 2^11 > cap
		{50, 1800 * time.Second}, // stays capped
	}

	for _, tc := range cases {
		lo := tc.base - time.Duration(float64(tc.base)*jitterFrac)
		hi := tc.base + time.Duration(float64(tc.base)*jitterFrac)

		for i := 0; i < 50; i++ {
			d := computeNextRetry(tc.attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", tc.attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", tc.attempt)
		}
	}
}

func TestComputeNextRetry_GrowsWithAttempts(t *testing.T) {
	// past the floor the base doubles per attempt, which jitter can't mask
	for attempt := 3; attempt < 11; attempt++ {
		cur := computeNextRetry(attempt)
		next := computeNextRetry(attempt + 1)
		assert.Greater(t, next, cur, "attempt %d", attempt)
	}
}
