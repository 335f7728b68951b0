// Package patterns implements the sequence and trend scans that the plain
// aggregation engine cannot express: pivots with the shifted winter year,
// per-group rankings, price trends and the next-visit material tally.
package patterns

import (
	"context"
	"time"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/common/metrics"
	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

const (
	defaultPivotLimit    = 200
	defaultPerGroupLimit = 5
	defaultTrendLimit    = 15
	defaultHistoryLimit  = 300
)

// Analyzer runs pattern scans over the event store.
type Analyzer struct {
	store  store.Store
	anchor *store.AnchorCache
	logger logger.Logger
}

// NewAnalyzer builds an analyzer.
func NewAnalyzer(s store.Store, anchor *store.AnchorCache, log logger.Logger) *Analyzer {
	return &Analyzer{store: s, anchor: anchor, logger: log}
}

// operationVerbs restricts scans to actual maintenance work; inspections and
// unclassified events carry no material usage.
var operationVerbs = []models.VerbType{models.VerbMaintain, models.VerbRepair}

func (a *Analyzer) scanOperations(ctx context.Context, q store.Query) ([]models.Event, error) {
	if len(q.Verbs) == 0 {
		q.Verbs = operationVerbs
	}
	return a.store.Scan(ctx, q)
}

func (a *Analyzer) anchorDate(ctx context.Context) *time.Time {
	if a.anchor == nil {
		return nil
	}
	t, ok, err := a.anchor.Get(ctx)
	if err != nil || !ok {
		return nil
	}
	return &t
}

func observeScan(name string, started time.Time) {
	metrics.PatternScanDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}
