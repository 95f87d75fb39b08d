package flow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_ReservesRemainingCapacity(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 10, MaxPages: 5})

	assert.Equal(t, 7, controller.Admit(7))
	assert.Equal(t, 3, controller.Admit(20))
	assert.Equal(t, 0, controller.Admit(1))
}

func TestAdmit_CountsPersistedAndInFlight(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 10, MaxPages: 5})

	controller.Admit(4)
	controller.RegisterPersisted(4)
	controller.Admit(3)

	snap := controller.Snapshot()
	assert.Equal(t, 4, snap.Persisted)
	assert.Equal(t, 3, snap.InFlight)
	assert.Equal(t, 3, controller.Admit(10))
}

func TestReleaseInFlight_ReturnsCapacity(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 5, MaxPages: 5})

	assert.Equal(t, 5, controller.Admit(5))
	assert.Equal(t, 0, controller.Admit(1))
	controller.ReleaseInFlight(2)
	assert.Equal(t, 2, controller.Admit(5))
}

func TestRegisterPageVisited_StopsAtBudget(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 100, MaxPages: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, controller.RegisterPageVisited())
	}
	assert.False(t, controller.RegisterPageVisited())
	assert.False(t, controller.RegisterPageVisited())
	assert.Equal(t, 3, controller.Snapshot().PagesVisited)
	assert.True(t, controller.PagesExhausted())
}

func TestTerminal_OnTargetMet(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 2, MaxPages: 5})

	assert.False(t, controller.Terminal())
	controller.Admit(2)
	controller.RegisterPersisted(2)
	assert.True(t, controller.Terminal())
	assert.True(t, controller.Snapshot().Terminal)
}

func TestAdmit_ConcurrentNeverOvershoots(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{TargetRecords: 100, MaxPages: 5})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := controller.Admit(9)
			mu.Lock()
			granted += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, granted)
	assert.Equal(t, 0, controller.Admit(1))
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	controller := NewController(Config{})

	snap := controller.Snapshot()
	assert.Equal(t, 50, snap.TargetRecords)
	assert.Equal(t, 10, snap.MaxPages)
}
