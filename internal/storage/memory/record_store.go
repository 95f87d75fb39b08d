package memory

import (
	"context"
	"sync"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// RecordStore keeps persisted job records in-memory, deduplicated by URL.
// It backs local runs and the worker tests.
type RecordStore struct {
	mu      sync.RWMutex
	byURL   map[string]int
	records []scrape.JobRecord
}

// NewRecordStore creates an in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		byURL: make(map[string]int),
	}
}

// Persist stores one record; a record with an already-seen URL replaces the
// previous one.
func (s *RecordStore) Persist(_ context.Context, record scrape.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byURL[record.URL]; ok {
		s.records[idx] = record
		return nil
	}
	s.byURL[record.URL] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of the persisted records in insertion order.
func (s *RecordStore) Records() []scrape.JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scrape.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of distinct persisted records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
