// Package dispatcher coordinates the worker pool over the shared task queue
// and decides when a run has drained.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/worker"
)

// Coordinator tracks outstanding tasks and closes the queue once the last
// one finishes, so workers drain and exit without a separate stop signal.
type Coordinator struct {
	queue  scrape.Queue
	logger *zap.Logger

	mu        sync.Mutex
	pending   int
	issued    int
	maxIssued int
	closed    bool
	visited   map[string]struct{}
}

// NewCoordinator builds a Coordinator. maxIssued caps total task submissions
// for the run, retries included; zero means uncapped.
func NewCoordinator(queue scrape.Queue, maxIssued int, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		queue:     queue,
		maxIssued: maxIssued,
		logger:    logger,
		visited:   make(map[string]struct{}),
	}
}

// Submit enqueues a task and counts it as pending. Returns false when the
// run is already draining or the submission budget is spent; the caller owns
// any capacity reservation attached to the task.
func (c *Coordinator) Submit(ctx context.Context, task scrape.Task) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.maxIssued > 0 && c.issued >= c.maxIssued {
		c.mu.Unlock()
		c.logger.Warn("task budget spent, rejecting submission",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
		)
		return false
	}
	c.issued++
	c.pending++
	c.mu.Unlock()

	if err := c.queue.Enqueue(ctx, task); err != nil {
		c.logger.Error("task enqueue failed", zap.String("task_id", task.ID), zap.Error(err))
		c.TaskDone()
		return false
	}
	return true
}

// TaskDone marks one pending task finished. The last completion closes the
// queue.
func (c *Coordinator) TaskDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if c.pending <= 0 && !c.closed {
		c.closed = true
		c.queue.Close()
		c.logger.Info("all tasks drained, queue closed", zap.Int("issued", c.issued))
	}
}

// FirstVisit records url and reports whether this run has not scheduled it
// before. Detail pages repeat across listing pages; each is visited once.
func (c *Coordinator) FirstVisit(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.visited[url]; seen {
		return false
	}
	c.visited[url] = struct{}{}
	return true
}

// Shutdown force-closes the queue, rejecting further submissions.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.queue.Close()
}

// Pending returns the number of outstanding tasks.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Issued returns the total number of tasks submitted so far.
func (c *Coordinator) Issued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

// Pool fans queue work out to a fixed set of workers.
type Pool struct {
	workers []*worker.Worker
}

// NewPool creates a Pool.
func NewPool(workers []*worker.Worker) *Pool {
	return &Pool{workers: workers}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Run starts all workers and blocks until every one has exited, which
// happens when the queue closes or the context ends.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	wg.Wait()
}
