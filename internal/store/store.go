// Package store reads maintenance events out of the document store. The two
// legacy document roots are coalesced here, at the read boundary, so the rest
// of the system only ever sees the flat Event model.
package store

import (
	"context"
	"time"

	"fleet-insights/internal/models"
)

// Query is the coarse pushdown a store implementation may apply before
// handing events to the in-process engine. All fields are optional.
type Query struct {
	VehicleID string
	Verbs     []models.VerbType
	TimeRange *models.TimeRange
	Limit     int
}

// Store is the read interface over the event corpus.
type Store interface {
	// Scan returns events matching the coarse query. Implementations may
	// over-return (the engine re-filters) but must not under-return.
	Scan(ctx context.Context, q Query) ([]models.Event, error)

	// Count returns the total number of events.
	Count(ctx context.Context) (int64, error)

	// AnchorDate returns the newest business date in the corpus. ok is false
	// when no event carries a business date.
	AnchorDate(ctx context.Context) (time.Time, bool, error)
}

// Matches applies the coarse query to a single event; shared by the memory
// store and by tests.
func (q Query) Matches(ev *models.Event) bool {
	if q.VehicleID != "" && ev.VehicleID != q.VehicleID {
		return false
	}
	if len(q.Verbs) > 0 {
		found := false
		for _, v := range q.Verbs {
			if ev.Verb == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.TimeRange != nil {
		if !ev.HasOperationDate() || !q.TimeRange.Contains(*ev.OperationDate) {
			return false
		}
	}
	return true
}
