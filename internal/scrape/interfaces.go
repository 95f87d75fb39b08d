package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves a URL for the given stage and classifies the response.
// attempt is the task's zero-based retry count; implementations key their
// backoff escalation to it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, stage Stage, attempt int) (FetchResult, error)
}

// RecordSink persists one assembled record at a time, at-least-once.
type RecordSink interface {
	Persist(ctx context.Context, record JobRecord) error
}

// BlobStore archives raw page payloads and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for crawl tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
	Close()
}

// Hasher computes digests for snapshot paths and deduplication.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run and task IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
