package patterns

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

// PivotRow is one cell of a year x bucket x material pivot.
type PivotRow struct {
	Year         int    `json:"year"`
	Bucket       string `json:"bucket"`
	MaterialName string `json:"materialName"`
	Count        int64  `json:"count"`
}

// seasonOrder fixes the presentation order of the Turkish season buckets.
var seasonOrder = map[string]int{"kis": 0, "ilkbahar": 1, "yaz": 2, "sonbahar": 3}

// MaterialPivot counts material usage per year and season (or month when
// bySeason is false). December events are attributed to the following
// year's winter. Rows are sorted by count descending; equal counts order by
// year, bucket and material so the output is stable across runs.
func (a *Analyzer) MaterialPivot(ctx context.Context, bySeason bool, limit int) ([]PivotRow, error) {
	defer observeScan("material_pivot", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	return materialPivot(events, bySeason, limit), nil
}

func materialPivot(events []models.Event, bySeason bool, limit int) []PivotRow {
	if limit <= 0 {
		limit = defaultPivotLimit
	}
	type cell struct {
		year     int
		bucket   string
		material string
	}
	counts := map[cell]int64{}
	for i := range events {
		ev := &events[i]
		if !ev.HasOperationDate() || ev.MaterialName == "" {
			continue
		}
		t := *ev.OperationDate
		c := cell{material: ev.MaterialName}
		if bySeason {
			c.year = models.PivotYear(t)
			c.bucket = models.SeasonOf(t.Month())
		} else {
			c.year = t.Year()
			c.bucket = fmt.Sprintf("%02d", int(t.Month()))
		}
		counts[c]++
	}

	rows := make([]PivotRow, 0, len(counts))
	for c, n := range counts {
		rows = append(rows, PivotRow{Year: c.year, Bucket: c.bucket, MaterialName: c.material, Count: n})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		if rows[i].Year != rows[j].Year {
			return rows[i].Year > rows[j].Year
		}
		if rows[i].Bucket != rows[j].Bucket {
			if bySeason {
				return seasonOrder[rows[i].Bucket] < seasonOrder[rows[j].Bucket]
			}
			return rows[i].Bucket < rows[j].Bucket
		}
		return rows[i].MaterialName < rows[j].MaterialName
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// RankedRow is one ranked material inside a (year, season) or dimension
// group.
type RankedRow struct {
	Year         int    `json:"year,omitempty"`
	Season       string `json:"season,omitempty"`
	Group        string `json:"group,omitempty"`
	Rank         int    `json:"rank"`
	MaterialName string `json:"materialName"`
	Count        int64  `json:"count"`
}

// TopMaterialsPerYearSeason ranks the most used materials inside every
// (year, season) bucket, newest year first, seasons in calendar order.
func (a *Analyzer) TopMaterialsPerYearSeason(ctx context.Context, limitPerGroup, limit int) ([]RankedRow, error) {
	defer observeScan("top_per_year_season", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	return topMaterialsPerYearSeason(events, limitPerGroup, limit), nil
}

func topMaterialsPerYearSeason(events []models.Event, limitPerGroup, limit int) []RankedRow {
	if limitPerGroup <= 0 {
		limitPerGroup = defaultPerGroupLimit
	}
	if limit <= 0 {
		limit = defaultPivotLimit
	}
	type group struct {
		year   int
		season string
	}
	counters := map[group]map[string]int64{}
	for i := range events {
		ev := &events[i]
		if !ev.HasOperationDate() || ev.MaterialName == "" {
			continue
		}
		t := *ev.OperationDate
		g := group{year: models.PivotYear(t), season: models.SeasonOf(t.Month())}
		if counters[g] == nil {
			counters[g] = map[string]int64{}
		}
		counters[g][ev.MaterialName]++
	}

	groups := make([]group, 0, len(counters))
	for g := range counters {
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].year != groups[j].year {
			return groups[i].year > groups[j].year
		}
		return seasonOrder[groups[i].season] < seasonOrder[groups[j].season]
	})

	var rows []RankedRow
	for _, g := range groups {
		for rank, mc := range topCounts(counters[g], limitPerGroup) {
			rows = append(rows, RankedRow{
				Year:         g.year,
				Season:       g.season,
				Rank:         rank + 1,
				MaterialName: mc.key,
				Count:        mc.count,
			})
			if len(rows) >= limit {
				return rows
			}
		}
	}
	return rows
}

// TopMaterialsPerDimension ranks materials inside each value of an entity
// dimension (vehicle type, model, customer...), busiest group first.
func (a *Analyzer) TopMaterialsPerDimension(ctx context.Context, groupOf func(*models.Event) string, limitPerGroup, limit int) ([]RankedRow, error) {
	defer observeScan("top_per_dimension", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	return topMaterialsPerDimension(events, groupOf, limitPerGroup, limit), nil
}

func topMaterialsPerDimension(events []models.Event, groupOf func(*models.Event) string, limitPerGroup, limit int) []RankedRow {
	if limitPerGroup <= 0 {
		limitPerGroup = defaultPerGroupLimit
	}
	if limit <= 0 {
		limit = defaultPivotLimit
	}
	counters := map[string]map[string]int64{}
	totals := map[string]int64{}
	for i := range events {
		ev := &events[i]
		if ev.MaterialName == "" {
			continue
		}
		g := groupOf(ev)
		if g == "" {
			continue
		}
		if counters[g] == nil {
			counters[g] = map[string]int64{}
		}
		counters[g][ev.MaterialName]++
		totals[g]++
	}

	groups := make([]string, 0, len(counters))
	for g := range counters {
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if totals[groups[i]] != totals[groups[j]] {
			return totals[groups[i]] > totals[groups[j]]
		}
		return groups[i] < groups[j]
	})

	var rows []RankedRow
	for _, g := range groups {
		for rank, mc := range topCounts(counters[g], limitPerGroup) {
			rows = append(rows, RankedRow{
				Group:        g,
				Rank:         rank + 1,
				MaterialName: mc.key,
				Count:        mc.count,
			})
			if len(rows) >= limit {
				return rows
			}
		}
	}
	return rows
}

type keyCount struct {
	key   string
	count int64
}

// topCounts returns the n largest entries, count descending. Ties break on
// the key, not on encounter order, so the same data always ranks the same
// way regardless of scan order.
func topCounts(counter map[string]int64, n int) []keyCount {
	out := make([]keyCount, 0, len(counter))
	for k, c := range counter {
		out = append(out, keyCount{k, c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
