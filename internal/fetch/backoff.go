package fetch

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// backoffPolicy computes jittered exponential waits between retry attempts.
// The pre-jitter delay is monotonically non-decreasing in the attempt number.
type backoffPolicy struct {
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newBackoffPolicy(base, maxDelay time.Duration) *backoffPolicy {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 15 * time.Second
	}
	return &backoffPolicy{baseDelay: base, maxDelay: maxDelay}
}

// preJitter returns the deterministic delay for the attempt, before jitter.
func (p *backoffPolicy) preJitter(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	return time.Duration(delay)
}

// Backoff returns the wait duration before the next attempt: half the
// deterministic delay plus a random jitter up to the other half.
func (p *backoffPolicy) Backoff(attempt int) time.Duration {
	delay := p.preJitter(attempt)
	return delay/2 + randomJitter(delay/2)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// randomBetween draws a duration uniformly from [lo, hi].
func randomBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + randomJitter(hi-lo)
}

// pause sleeps for the delay unless the context finishes first.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
