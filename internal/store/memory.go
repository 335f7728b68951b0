package store

import (
	"context"
	"sync"
	"time"

	"fleet-insights/internal/models"
)

// MemoryStore keeps the corpus in memory. Used by tests and by the fixture
// loader; implements the same coarse-pushdown contract as the live store.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewMemoryStore builds a store over a copy of the given events.
func NewMemoryStore(events []models.Event) *MemoryStore {
	return &MemoryStore{events: append([]models.Event(nil), events...)}
}

// Add appends events; handy for incremental test setup.
func (s *MemoryStore) Add(events ...models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// Scan returns every event matching the coarse query.
func (s *MemoryStore) Scan(ctx context.Context, q Query) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Event
	for i := range s.events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !q.Matches(&s.events[i]) {
			continue
		}
		out = append(out, s.events[i])
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored events.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

// AnchorDate returns the newest business date across all events.
func (s *MemoryStore) AnchorDate(ctx context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max time.Time
	found := false
	for i := range s.events {
		ev := &s.events[i]
		if !ev.HasOperationDate() {
			continue
		}
		if !found || ev.OperationDate.After(max) {
			max = *ev.OperationDate
			found = true
		}
	}
	return max, found, nil
}
