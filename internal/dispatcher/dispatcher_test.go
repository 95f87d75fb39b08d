package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/queue/memory"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func TestCoordinator_ClosesQueueWhenDrained(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(4)
	coordinator := NewCoordinator(q, 0, zap.NewNop())
	ctx := context.Background()

	require.True(t, coordinator.Submit(ctx, scrape.Task{ID: "t1", Kind: scrape.TaskListing}))
	require.True(t, coordinator.Submit(ctx, scrape.Task{ID: "t2", Kind: scrape.TaskDetail}))
	assert.Equal(t, 2, coordinator.Pending())

	coordinator.TaskDone()
	assert.Equal(t, 1, coordinator.Pending())

	// Queue stays open while work is outstanding.
	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	coordinator.TaskDone()

	_, err = q.Dequeue(ctx)
	require.NoError(t, err)
	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, scrape.ErrQueueClosed)
}

func TestCoordinator_RejectsAfterClose(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(1)
	coordinator := NewCoordinator(q, 0, zap.NewNop())

	coordinator.Shutdown()
	assert.False(t, coordinator.Submit(context.Background(), scrape.Task{ID: "late"}))
	assert.Equal(t, 0, coordinator.Pending())
}

func TestCoordinator_EnforcesBudget(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(4)
	coordinator := NewCoordinator(q, 2, zap.NewNop())
	ctx := context.Background()

	assert.True(t, coordinator.Submit(ctx, scrape.Task{ID: "t1"}))
	assert.True(t, coordinator.Submit(ctx, scrape.Task{ID: "t2"}))
	assert.False(t, coordinator.Submit(ctx, scrape.Task{ID: "t3"}))
	assert.Equal(t, 2, coordinator.Issued())
	assert.Equal(t, 2, coordinator.Pending())
}

func TestCoordinator_FirstVisitDedupsURLs(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(1)
	coordinator := NewCoordinator(q, 0, zap.NewNop())

	assert.True(t, coordinator.FirstVisit("https://www.simplyhired.com/job/k1"))
	assert.False(t, coordinator.FirstVisit("https://www.simplyhired.com/job/k1"))
	assert.True(t, coordinator.FirstVisit("https://www.simplyhired.com/job/k2"))
}

func TestCoordinator_EnqueueFailureRollsBackPending(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(2)
	coordinator := NewCoordinator(q, 0, zap.NewNop())
	ctx := context.Background()

	require.True(t, coordinator.Submit(ctx, scrape.Task{ID: "t1"}))
	q.Close()

	assert.False(t, coordinator.Submit(ctx, scrape.Task{ID: "t2"}))
	assert.Equal(t, 1, coordinator.Pending())
}
