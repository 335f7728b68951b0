package patterns

import (
	"context"
	"sort"
	"strings"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
	"fleet-insights/internal/store"
)

// NextMaterialRow is one material seen at the visit right after the trigger
// material was used. Ratio is the percentage of matched pairs it appeared
// in.
type NextMaterialRow struct {
	Material string  `json:"material"`
	Count    int64   `json:"count"`
	Ratio    float64 `json:"ratio"`
}

// NextMaterialsResult carries the ranked follow-up materials plus scan
// metadata.
type NextMaterialsResult struct {
	Rows         []NextMaterialRow `json:"rows"`
	MatchedPairs int               `json:"matchedPairs"`
	Note         string            `json:"note,omitempty"`
}

// NextMaintenanceMaterials answers "when X is replaced, what comes at the
// next visit". Visits are per-vehicle per-day material sets; a visit matches
// the trigger when the trigger's tokens are a subset of any material's
// tokens, and the immediately following visit's materials are tallied.
func (a *Analyzer) NextMaintenanceMaterials(ctx context.Context, trigger, modelFilter string, limit int) (*NextMaterialsResult, error) {
	defer observeScan("next_maintenance", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	return nextMaintenanceMaterials(events, trigger, modelFilter, limit), nil
}

type visit struct {
	day       string
	materials map[string]bool
}

func nextMaintenanceMaterials(events []models.Event, trigger, modelFilter string, limit int) *NextMaterialsResult {
	if limit <= 0 {
		limit = 10
	}
	triggerTokens := strings.Fields(nlp.Normalize(trigger))

	visits := buildVisits(events, modelFilter)

	counter := map[string]int64{}
	matchedPairs := 0
	for _, vs := range visits {
		for i := 0; i+1 < len(vs); i++ {
			if !visitMatchesTrigger(vs[i], triggerTokens) {
				continue
			}
			matchedPairs++
			for material := range vs[i+1].materials {
				counter[material]++
			}
		}
	}

	if len(counter) == 0 {
		note := "no visit pairs matched the trigger material"
		if modelFilter != "" {
			note += " for the requested model"
		}
		return &NextMaterialsResult{Rows: []NextMaterialRow{}, MatchedPairs: matchedPairs, Note: note}
	}

	rows := make([]NextMaterialRow, 0, limit)
	for _, kc := range topCounts(counter, limit) {
		rows = append(rows, NextMaterialRow{
			Material: kc.key,
			Count:    kc.count,
			Ratio:    round1f(float64(kc.count) / float64(matchedPairs) * 100),
		})
	}
	return &NextMaterialsResult{Rows: rows, MatchedPairs: matchedPairs}
}

// buildVisits groups events into per-vehicle day visits, ordered by day.
func buildVisits(events []models.Event, modelFilter string) map[string][]visit {
	byVehicleDay := map[string]map[string]map[string]bool{}
	for i := range events {
		ev := &events[i]
		if ev.VehicleID == "" || !ev.HasOperationDate() || ev.MaterialName == "" {
			continue
		}
		if modelFilter != "" && !modelMatches(ev.VehicleModel, modelFilter) {
			continue
		}
		day := ev.OperationDate.Format("2006-01-02")
		if byVehicleDay[ev.VehicleID] == nil {
			byVehicleDay[ev.VehicleID] = map[string]map[string]bool{}
		}
		if byVehicleDay[ev.VehicleID][day] == nil {
			byVehicleDay[ev.VehicleID][day] = map[string]bool{}
		}
		byVehicleDay[ev.VehicleID][day][nlp.Normalize(ev.MaterialName)] = true
	}

	visits := map[string][]visit{}
	for vehicle, days := range byVehicleDay {
		vs := make([]visit, 0, len(days))
		for day, materials := range days {
			vs = append(vs, visit{day: day, materials: materials})
		}
		sort.SliceStable(vs, func(i, j int) bool { return vs[i].day < vs[j].day })
		visits[vehicle] = vs
	}
	return visits
}

func visitMatchesTrigger(v visit, triggerTokens []string) bool {
	if len(triggerTokens) == 0 {
		return false
	}
	for material := range v.materials {
		if tokenSubset(triggerTokens, strings.Fields(material)) {
			return true
		}
	}
	return false
}

// modelMatches is forgiving about spacing and partial designations: direct
// substring either way, space-stripped containment, or the filter's tokens
// all appearing in the model.
func modelMatches(model, filter string) bool {
	m := nlp.Normalize(model)
	f := nlp.Normalize(filter)
	if m == "" || f == "" {
		return false
	}
	if strings.Contains(m, f) || strings.Contains(f, m) {
		return true
	}
	ms := strings.ReplaceAll(m, " ", "")
	fs := strings.ReplaceAll(f, " ", "")
	if strings.Contains(ms, fs) || strings.Contains(fs, ms) {
		return true
	}
	return tokenSubset(strings.Fields(f), strings.Fields(m))
}

func tokenSubset(sub, super []string) bool {
	if len(sub) == 0 {
		return false
	}
	for _, t := range sub {
		found := false
		for _, s := range super {
			if s == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
