package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPreJitterMonotonic(t *testing.T) {
	t.Parallel()
	policy := newBackoffPolicy(250*time.Millisecond, 5*time.Second)

	prev := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		delay := policy.preJitter(attempt)
		require.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		prev = delay
	}
}

func TestBackoffCappedAtMax(t *testing.T) {
	t.Parallel()
	policy := newBackoffPolicy(1*time.Second, 4*time.Second)

	assert.Equal(t, 4*time.Second, policy.preJitter(10))
}

func TestBackoffWithinBounds(t *testing.T) {
	t.Parallel()
	policy := newBackoffPolicy(1*time.Second, 8*time.Second)

	for attempt := 0; attempt < 4; attempt++ {
		wait := policy.Backoff(attempt)
		pre := policy.preJitter(attempt)
		assert.GreaterOrEqual(t, wait, pre/2)
		assert.LessOrEqual(t, wait, pre)
	}
}

func TestRandomBetween(t *testing.T) {
	t.Parallel()

	lo, hi := 10*time.Millisecond, 30*time.Millisecond
	for i := 0; i < 50; i++ {
		d := randomBetween(lo, hi)
		require.GreaterOrEqual(t, d, lo)
		require.LessOrEqual(t, d, hi)
	}
	assert.Equal(t, lo, randomBetween(lo, lo))
}
