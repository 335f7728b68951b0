package patterns

import (
	"context"
	"sort"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

const minFamilyMembers = 2

// FamilyTrendRow aggregates price increases across a material family, the
// code prefix before the first dash.
type FamilyTrendRow struct {
	MaterialFamily string  `json:"materialFamily"`
	AvgChangePct   float64 `json:"avgChangePct"`
	MaterialsCount int     `json:"materialsCount"`
}

// FamilyPriceTrend averages the per-material price increases inside each
// family. Families need at least two distinct rising members to qualify.
func (a *Analyzer) FamilyPriceTrend(ctx context.Context, period *models.PeriodSpec, limit int) ([]FamilyTrendRow, error) {
	defer observeScan("family_price_trend", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	anchor := a.anchorDate(ctx)
	return familyPriceTrend(events, period, anchor, limit), nil
}

func familyPriceTrend(events []models.Event, period *models.PeriodSpec, anchor *time.Time, limit int) []FamilyTrendRow {
	if limit <= 0 {
		limit = defaultTrendLimit
	}
	if period == nil {
		period = &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3}
	}

	series, _ := priceSeries(events, period, anchor)
	changes := map[string][]float64{}
	for code, obs := range series {
		row, ok := trendOf(code, obs)
		if !ok {
			continue
		}
		family := familyOf(code)
		changes[family] = append(changes[family], row.ChangePct)
	}

	var rows []FamilyTrendRow
	for family, pcts := range changes {
		if len(pcts) < minFamilyMembers {
			continue
		}
		rows = append(rows, FamilyTrendRow{
			MaterialFamily: family,
			AvgChangePct:   round1f(mean(pcts)),
			MaterialsCount: len(pcts),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgChangePct != rows[j].AvgChangePct {
			return rows[i].AvgChangePct > rows[j].AvgChangePct
		}
		return rows[i].MaterialFamily < rows[j].MaterialFamily
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// SeasonFamilyRow is one family's average price increase inside one season.
type SeasonFamilyRow struct {
	Season         string  `json:"season"`
	MaterialFamily string  `json:"materialFamily"`
	AvgChangePct   float64 `json:"avgChangePct"`
	MaterialsCount int     `json:"materialsCount"`
}

// FamilyPriceTrendBySeason computes family price increases separately per
// season: the observations of each material are split by season before the
// first-to-last change is taken.
func (a *Analyzer) FamilyPriceTrendBySeason(ctx context.Context, period *models.PeriodSpec, limitPerSeason int) ([]SeasonFamilyRow, error) {
	defer observeScan("family_trend_by_season", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	anchor := a.anchorDate(ctx)
	return familyPriceTrendBySeason(events, period, anchor, limitPerSeason), nil
}

func familyPriceTrendBySeason(events []models.Event, period *models.PeriodSpec, anchor *time.Time, limitPerSeason int) []SeasonFamilyRow {
	if limitPerSeason <= 0 {
		limitPerSeason = 10
	}
	if period == nil {
		period = &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3}
	}

	type cell struct {
		season string
		code   string
	}
	series := map[cell][]priceObservation{}
	for i := range events {
		ev := &events[i]
		if ev.MaterialCode == "" || !ev.HasOperationDate() {
			continue
		}
		if !matchesTrendPeriod(ev, period, anchor) {
			continue
		}
		price, ok := ev.UnitCost()
		if !ok {
			continue
		}
		c := cell{season: models.SeasonOf(ev.OperationDate.Month()), code: ev.MaterialCode}
		series[c] = append(series[c], priceObservation{date: *ev.OperationDate, price: price})
	}

	type familyCell struct {
		season string
		family string
	}
	changes := map[familyCell][]float64{}
	for c, obs := range series {
		sort.SliceStable(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })
		row, ok := trendOf(c.code, obs)
		if !ok {
			continue
		}
		fc := familyCell{season: c.season, family: familyOf(c.code)}
		changes[fc] = append(changes[fc], row.ChangePct)
	}

	perSeason := map[string][]SeasonFamilyRow{}
	for fc, pcts := range changes {
		if len(pcts) < minFamilyMembers {
			continue
		}
		perSeason[fc.season] = append(perSeason[fc.season], SeasonFamilyRow{
			Season:         fc.season,
			MaterialFamily: fc.family,
			AvgChangePct:   round1f(mean(pcts)),
			MaterialsCount: len(pcts),
		})
	}

	var rows []SeasonFamilyRow
	for _, season := range []string{"kis", "ilkbahar", "yaz", "sonbahar"} {
		group := perSeason[season]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].AvgChangePct != group[j].AvgChangePct {
				return group[i].AvgChangePct > group[j].AvgChangePct
			}
			return group[i].MaterialFamily < group[j].MaterialFamily
		})
		if len(group) > limitPerSeason {
			group = group[:limitPerSeason]
		}
		rows = append(rows, group...)
	}
	return rows
}

func familyOf(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			return code[:i]
		}
	}
	return code
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
