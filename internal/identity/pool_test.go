package identity

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestPool(cfg Config) (*Pool, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewPool(cfg, clock, zap.NewNop()), clock
}

func TestPool_AcquireMintsAndReuses(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{})

	id, err := pool.Acquire()
	require.NoError(t, err)
	require.NotNil(t, id.Jar)
	assert.Equal(t, 0, pool.Size())

	pool.CheckIn(id, scrape.FetchOK)
	assert.Equal(t, 1, pool.Size())

	again, err := pool.Acquire()
	require.NoError(t, err)
	assert.Same(t, id, again)
}

func TestPool_NoSharingWhileCheckedOut(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{})

	first, err := pool.Acquire()
	require.NoError(t, err)
	second, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestPool_BlockedCheckInRetiresImmediately(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{})

	id, err := pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchBlocked)

	// The rejected fingerprint must never come back out, even though its
	// error score sits below the threshold.
	assert.Equal(t, 0, pool.Size())
	again, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, id, again)
}

func TestPool_EmptyCheckInRetiresImmediately(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{})

	id, err := pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchEmpty)

	assert.Equal(t, 0, pool.Size())
	again, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, id, again)
}

func TestPool_RetiresOnErrorScore(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{MaxErrorScore: 2})

	id, err := pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchNetworkError)
	assert.Equal(t, 1, pool.Size())

	id, err = pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchNetworkError)

	// Two network errors meet the threshold: not returned to the idle set.
	assert.Equal(t, 0, pool.Size())

	replacement, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, id, replacement)
}

func TestPool_CapacityBoundsMinting(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{Capacity: 2})

	first, err := pool.Acquire()
	require.NoError(t, err)
	_, err = pool.Acquire()
	require.NoError(t, err)

	_, err = pool.Acquire()
	require.ErrorIs(t, err, ErrExhausted)

	// Retirement frees a slot for a replacement mint.
	pool.CheckIn(first, scrape.FetchBlocked)
	replacement, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, first, replacement)
}

func TestPool_RetiresOnUsage(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{MaxUsage: 2})

	id, err := pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchOK)
	id, err = pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchOK)

	assert.Equal(t, 0, pool.Size())
}

func TestPool_RetiresOnAge(t *testing.T) {
	t.Parallel()
	pool, clock := newTestPool(Config{MaxAge: 10 * time.Minute})

	id, err := pool.Acquire()
	require.NoError(t, err)
	pool.CheckIn(id, scrape.FetchOK)
	clock.Advance(11 * time.Minute)

	fresh, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotSame(t, id, fresh)
}

func TestIdentity_HeadersMatchProfile(t *testing.T) {
	t.Parallel()
	pool, _ := newTestPool(Config{})

	id, err := pool.Acquire()
	require.NoError(t, err)

	h := id.Headers()
	assert.Equal(t, id.Profile.UserAgent, h.Get("User-Agent"))
	assert.Equal(t, id.Profile.AcceptLanguage, h.Get("Accept-Language"))
	assert.NotEmpty(t, h.Get("Accept"))
	if id.Profile.SecChUA != "" {
		assert.Equal(t, id.Profile.SecChUA, h.Get("Sec-Ch-Ua"))
	}
}
