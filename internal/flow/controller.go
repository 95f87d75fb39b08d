// Package flow implements run-level capacity accounting: how many records a
// run still needs, how many are reserved by in-flight work, and how many
// listing pages it may still visit.
package flow

import "sync"

// Config bounds a run.
type Config struct {
	// TargetRecords is the number of persisted records that completes the run.
	TargetRecords int
	// MaxPages caps listing pages visited, regardless of yield.
	MaxPages int
}

func (c Config) withDefaults() Config {
	if c.TargetRecords <= 0 {
		c.TargetRecords = 50
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	return c
}

// Snapshot is a point-in-time view of run progress.
type Snapshot struct {
	TargetRecords int  `json:"target_records"`
	Persisted     int  `json:"persisted"`
	InFlight      int  `json:"in_flight"`
	PagesVisited  int  `json:"pages_visited"`
	MaxPages      int  `json:"max_pages"`
	Terminal      bool `json:"terminal"`
}

// Controller tracks persisted and reserved capacity for one run. Admission
// reserves capacity before work is scheduled, so concurrent workers cannot
// collectively overshoot the target.
type Controller struct {
	mu           sync.Mutex
	cfg          Config
	persisted    int
	inFlight     int
	pagesVisited int
}

// NewController builds a Controller for one run.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg.withDefaults()}
}

// Admit reserves up to n units of remaining capacity and returns how many
// were granted. Remaining capacity counts both persisted records and
// outstanding reservations.
func (c *Controller) Admit(n int) int {
	if n <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.cfg.TargetRecords - c.persisted - c.inFlight
	if remaining <= 0 {
		return 0
	}
	if n > remaining {
		n = remaining
	}
	c.inFlight += n
	return n
}

// RegisterPageVisited counts one listing page against the page budget. It
// returns false, without counting, once the budget is spent.
func (c *Controller) RegisterPageVisited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pagesVisited >= c.cfg.MaxPages {
		return false
	}
	c.pagesVisited++
	return true
}

// RegisterPersisted converts n reservations into persisted records.
func (c *Controller) RegisterPersisted(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted += n
	c.inFlight -= n
	if c.inFlight < 0 {
		c.inFlight = 0
	}
}

// ReleaseInFlight returns n reservations to the pool without persisting,
// used when the work they covered failed or was abandoned.
func (c *Controller) ReleaseInFlight(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight -= n
	if c.inFlight < 0 {
		c.inFlight = 0
	}
}

// Terminal reports whether the run has met its record target.
func (c *Controller) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persisted >= c.cfg.TargetRecords
}

// PagesExhausted reports whether the page budget is spent.
func (c *Controller) PagesExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagesVisited >= c.cfg.MaxPages
}

// Snapshot returns the current counters.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		TargetRecords: c.cfg.TargetRecords,
		Persisted:     c.persisted,
		InFlight:      c.inFlight,
		PagesVisited:  c.pagesVisited,
		MaxPages:      c.cfg.MaxPages,
		Terminal:      c.persisted >= c.cfg.TargetRecords,
	}
}
