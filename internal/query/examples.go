package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fleet-insights/internal/models"
)

const defaultExampleLimit = 5

// FetchExamples returns a handful of concrete events matching the plan's
// filters and period, newest first, for showing alongside aggregate rows.
func (e *Engine) FetchExamples(ctx context.Context, plan *models.QueryPlan, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = defaultExampleLimit
	}
	anchor := e.anchorDate(ctx)
	pred, err := compileFilters(plan.Filters)
	if err != nil {
		return nil, err
	}
	events, err := e.store.Scan(ctx, e.pushdown(plan, anchor))
	if err != nil {
		return nil, err
	}

	var matched []models.Event
	for i := range events {
		ev := &events[i]
		if !pred(ev) || !MatchesPeriod(ev, plan.Period, anchor) {
			continue
		}
		matched = append(matched, *ev)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		di, dj := matched[i].OperationDate, matched[j].OperationDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return di.After(*dj)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

var verbTexts = map[models.VerbType]string{
	models.VerbMaintain: "bakim yapildi",
	models.VerbRepair:   "onarim yapildi",
	models.VerbInspect:  "kontrol edildi",
	models.VerbOther:    "islem yapildi",
}

// RenderStatement composes a short Turkish sentence describing one event,
// used when presenting example records to the user.
func RenderStatement(ev *models.Event) string {
	var parts []string
	if ev.HasOperationDate() {
		parts = append(parts, ev.OperationDate.Format("02.01.2006"))
	}
	if ev.VehicleID != "" {
		parts = append(parts, fmt.Sprintf("%s plakali arac icin", ev.VehicleID))
	}
	if ev.MaterialName != "" {
		parts = append(parts, fmt.Sprintf("%s kullanilarak", ev.MaterialName))
	}
	verb := verbTexts[ev.Verb]
	if verb == "" {
		verb = verbTexts[models.VerbOther]
	}
	parts = append(parts, verb)
	sentence := strings.Join(parts, " ")
	if ev.Cost != nil {
		sentence += fmt.Sprintf(" (%.2f TL)", *ev.Cost)
	}
	return sentence
}
