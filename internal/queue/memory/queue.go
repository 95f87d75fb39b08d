// Package memory provides the bounded in-process task queue the worker pool
// drains.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// ErrClosed is returned by Dequeue once the queue has been closed and drained.
var ErrClosed = scrape.ErrQueueClosed

// Queue is a bounded in-memory task queue with context-aware operations.
type Queue struct {
	ch      chan scrape.Task
	closeMu sync.RWMutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		ch: make(chan scrape.Task, capacity),
	}
}

// Enqueue pushes a task or returns when the context ends. Enqueueing into a
// closed queue returns ErrClosed rather than panicking, since retries can
// race shutdown.
func (q *Queue) Enqueue(ctx context.Context, task scrape.Task) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- task:
		return nil
	}
}

// Dequeue pops the next task, respecting context cancellation. Returns
// ErrClosed once the queue is closed and empty.
func (q *Queue) Dequeue(ctx context.Context) (scrape.Task, error) {
	select {
	case <-ctx.Done():
		return scrape.Task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return scrape.Task{}, ErrClosed
		}
		return task, nil
	}
}

// Close closes the queue; pending tasks remain dequeueable.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
