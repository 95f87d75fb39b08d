package scrape

import (
	"errors"
	"fmt"
)

// Error taxonomy for the fetch/extract pipeline. Blocked, Empty and
// NetworkError are retried with backoff and identity rotation up to the
// configured ceiling; "no data" is a normal control-flow outcome and has no
// error value on purpose.
var (
	// ErrBlocked signals an explicit anti-bot response that survived the
	// fallback transport retry.
	ErrBlocked = errors.New("blocked by target site")

	// ErrEmpty signals a suspicious non-content response after retry.
	ErrEmpty = errors.New("empty response body")

	// ErrNetwork signals a transport failure or timeout after retry.
	ErrNetwork = errors.New("network failure")

	// ErrNoSeeds is the only run-fatal error: the query produced no usable
	// listing URL at startup.
	ErrNoSeeds = errors.New("no usable seed query")

	// ErrQueueClosed is returned by queue operations after shutdown; workers
	// treat it as the drain signal.
	ErrQueueClosed = errors.New("queue closed")
)

// MalformedDataError reports an embedded payload that was present but
// unparsable. The cascade catches it locally and falls through to the next
// strategy.
type MalformedDataError struct {
	Strategy string
	Err      error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("strategy %s: malformed embedded data: %v", e.Strategy, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the fetch error warrants re-queueing the task
// with a fresh identity.
func Retryable(err error) bool {
	return errors.Is(err, ErrBlocked) || errors.Is(err, ErrEmpty) || errors.Is(err, ErrNetwork)
}
