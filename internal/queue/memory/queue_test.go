package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func TestQueue_EnqueueDequeue(t *testing.T) {
	t.Parallel()
	q := NewQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, scrape.Task{ID: "t1", Kind: scrape.TaskListing}))
	require.NoError(t, q.Enqueue(ctx, scrape.Task{ID: "t2", Kind: scrape.TaskDetail}))

	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	task, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", task.ID)
}

func TestQueue_DequeueRespectsContext(t *testing.T) {
	t.Parallel()
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_EnqueueBlocksUntilContextEnds(t *testing.T) {
	t.Parallel()
	q := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, scrape.Task{ID: "fill"}))

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(blocked, scrape.Task{ID: "overflow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_CloseDrainsThenErrClosed(t *testing.T) {
	t.Parallel()
	q := NewQueue(2)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, scrape.Task{ID: "t1"}))
	q.Close()

	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, q.Enqueue(ctx, scrape.Task{ID: "late"}), ErrClosed)
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	q := NewQueue(1)
	q.Close()
	q.Close()
}
