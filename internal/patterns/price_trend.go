package patterns

import (
	"context"
	"math"
	"sort"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

// PriceTrendRow describes one material whose unit price rose over the
// window.
type PriceTrendRow struct {
	MaterialCode string  `json:"materialCode"`
	MaterialName string  `json:"materialName,omitempty"`
	FirstDate    string  `json:"firstDate"`
	LastDate     string  `json:"lastDate"`
	FirstPrice   float64 `json:"firstPrice"`
	LastPrice    float64 `json:"lastPrice"`
	ChangeAbs    float64 `json:"changeAbs"`
	ChangePct    float64 `json:"changePct"`
	Observations int     `json:"observations"`
}

// priceObservation is one dated unit price.
type priceObservation struct {
	date  time.Time
	price float64
}

// PriceTrend finds the materials with the steepest unit price increase.
// Default window is the last 3 years before the anchor; materials need at
// least two observations, a positive first price and a positive change to
// qualify. Rows are sorted by percentage change descending.
func (a *Analyzer) PriceTrend(ctx context.Context, period *models.PeriodSpec, limit int) ([]PriceTrendRow, error) {
	defer observeScan("price_trend", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	anchor := a.anchorDate(ctx)
	return priceTrend(events, period, anchor, limit), nil
}

func priceTrend(events []models.Event, period *models.PeriodSpec, anchor *time.Time, limit int) []PriceTrendRow {
	if limit <= 0 {
		limit = defaultTrendLimit
	}
	if period == nil {
		period = &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3}
	}

	series, names := priceSeries(events, period, anchor)

	var rows []PriceTrendRow
	for code, obs := range series {
		row, ok := trendOf(code, obs)
		if !ok {
			continue
		}
		row.MaterialName = names[code]
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ChangePct != rows[j].ChangePct {
			return rows[i].ChangePct > rows[j].ChangePct
		}
		return rows[i].MaterialCode < rows[j].MaterialCode
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// priceSeries groups dated unit prices per material code inside the period.
func priceSeries(events []models.Event, period *models.PeriodSpec, anchor *time.Time) (map[string][]priceObservation, map[string]string) {
	series := map[string][]priceObservation{}
	names := map[string]string{}
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
		series[ev.MaterialCode] = append(series[ev.MaterialCode], priceObservation{
			date:  *ev.OperationDate,
			price: price,
		})
		if names[ev.MaterialCode] == "" {
			names[ev.MaterialCode] = ev.MaterialName
		}
	}
	for _, obs := range series {
		sort.SliceStable(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })
	}
	return series, names
}

func trendOf(code string, obs []priceObservation) (PriceTrendRow, bool) {
	if len(obs) < 2 {
		return PriceTrendRow{}, false
	}
	first, last := obs[0], obs[len(obs)-1]
	if first.price <= 0 {
		return PriceTrendRow{}, false
	}
	changeAbs := last.price - first.price
	if changeAbs <= 0 {
		return PriceTrendRow{}, false
	}
	changePct := changeAbs / first.price * 100
	return PriceTrendRow{
		MaterialCode: code,
		FirstDate:    first.date.Format("2006-01-02"),
		LastDate:     last.date.Format("2006-01-02"),
		FirstPrice:   round2f(first.price),
		LastPrice:    round2f(last.price),
		ChangeAbs:    round2f(changeAbs),
		ChangePct:    round1f(changePct),
		Observations: len(obs),
	}, true
}

// SeasonalPriceRow summarizes a material's unit price inside one season.
type SeasonalPriceRow struct {
	MaterialCode string  `json:"materialCode"`
	MaterialName string  `json:"materialName,omitempty"`
	Season       string  `json:"season"`
	AvgPrice     float64 `json:"avgPrice"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
	PriceRange   float64 `json:"priceRange"`
	Observations int     `json:"observations"`
}

// SeasonalPriceTrend summarizes unit prices per (material, season), widest
// swing first.
func (a *Analyzer) SeasonalPriceTrend(ctx context.Context, period *models.PeriodSpec, limit int) ([]SeasonalPriceRow, error) {
	defer observeScan("seasonal_price_trend", time.Now())
	events, err := a.scanOperations(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	anchor := a.anchorDate(ctx)
	return seasonalPriceTrend(events, period, anchor, limit), nil
}

func seasonalPriceTrend(events []models.Event, period *models.PeriodSpec, anchor *time.Time, limit int) []SeasonalPriceRow {
	if limit <= 0 {
		limit = defaultTrendLimit
	}
	type cell struct {
		code   string
		season string
	}
	type stats struct {
		sum, min, max float64
		n             int
	}
	agg := map[cell]*stats{}
	names := map[string]string{}

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
		c := cell{code: ev.MaterialCode, season: models.SeasonOf(ev.OperationDate.Month())}
		s := agg[c]
		if s == nil {
			s = &stats{min: math.MaxFloat64}
			agg[c] = s
		}
		s.sum += price
		s.n++
		if price < s.min {
			s.min = price
		}
		if price > s.max {
			s.max = price
		}
		if names[ev.MaterialCode] == "" {
			names[ev.MaterialCode] = ev.MaterialName
		}
	}

	rows := make([]SeasonalPriceRow, 0, len(agg))
	for c, s := range agg {
		rows = append(rows, SeasonalPriceRow{
			MaterialCode: c.code,
			MaterialName: names[c.code],
			Season:       c.season,
			AvgPrice:     round2f(s.sum / float64(s.n)),
			MinPrice:     round2f(s.min),
			MaxPrice:     round2f(s.max),
			PriceRange:   round2f(s.max - s.min),
			Observations: s.n,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PriceRange != rows[j].PriceRange {
			return rows[i].PriceRange > rows[j].PriceRange
		}
		if rows[i].MaterialCode != rows[j].MaterialCode {
			return rows[i].MaterialCode < rows[j].MaterialCode
		}
		return seasonOrder[rows[i].Season] < seasonOrder[rows[j].Season]
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// matchesTrendPeriod is the fail-open period check: no anchor on a relative
// period means no time restriction at all.
func matchesTrendPeriod(ev *models.Event, period *models.PeriodSpec, anchor *time.Time) bool {
	if period == nil {
		return true
	}
	if period.Kind == models.PeriodRelative && anchor == nil {
		return true
	}
	r, ok := resolveTrendRange(period, anchor)
	if !ok {
		return true
	}
	return ev.HasOperationDate() && r.Contains(*ev.OperationDate)
}

// resolveTrendRange approximates relative periods the way the historical
// reports did: N years = 365N days, N months = 30N days back from the
// anchor.
func resolveTrendRange(period *models.PeriodSpec, anchor *time.Time) (models.TimeRange, bool) {
	if period.Kind != models.PeriodRelative {
		return concreteRange(period)
	}
	if anchor == nil {
		return models.TimeRange{}, false
	}
	end := anchor.Add(24 * time.Hour)
	var start time.Time
	switch period.Unit {
	case "year":
		start = anchor.AddDate(0, 0, -365*period.Value)
	case "month":
		start = anchor.AddDate(0, 0, -30*period.Value)
	default:
		return models.TimeRange{}, false
	}
	return models.TimeRange{Start: start, End: end}, true
}

func concreteRange(period *models.PeriodSpec) (models.TimeRange, bool) {
	switch period.Kind {
	case models.PeriodYear:
		if period.Year == 0 {
			return models.TimeRange{}, false
		}
		return models.TimeRange{
			Start: time.Date(period.Year, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(period.Year+1, 1, 1, 0, 0, 0, 0, time.UTC),
		}, true
	case models.PeriodRange:
		start, err1 := time.Parse("2006-01-02", period.StartDate)
		end, err2 := time.Parse("2006-01-02", period.EndDate)
		if err1 != nil || err2 != nil {
			return models.TimeRange{}, false
		}
		return models.TimeRange{Start: start, End: end}, true
	}
	return models.TimeRange{}, false
}

func round2f(f float64) float64 {
	return math.Round(f*100) / 100
}

func round1f(f float64) float64 {
	return math.Round(f*10) / 10
}
