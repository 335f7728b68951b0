package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fleet-insights/internal/common/errors"
	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/common/metrics"
	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
	"fleet-insights/internal/schema"
	"fleet-insights/internal/store"
)

// Engine executes query plans against the event store. Coarse conditions are
// pushed down to the store; the exact filter, grouping and metric folds run
// in process so both store implementations behave identically.
type Engine struct {
	store  store.Store
	anchor *store.AnchorCache
	logger logger.Logger
}

// NewEngine builds an engine over a store.
func NewEngine(s store.Store, anchor *store.AnchorCache, log logger.Logger) *Engine {
	return &Engine{store: s, anchor: anchor, logger: log}
}

// Execute runs the plan and returns ranked rows. An empty store yields zero
// rows, never an error; buckets are created lazily so the implicit global
// bucket of an ungrouped plan only appears when at least one event matched.
func (e *Engine) Execute(ctx context.Context, plan *models.QueryPlan) ([]models.Row, error) {
	started := time.Now()

	anchor := e.anchorDate(ctx)
	pred, err := compileFilters(plan.Filters)
	if err != nil {
		return nil, err
	}

	events, err := e.store.Scan(ctx, e.pushdown(plan, anchor))
	if err != nil {
		return nil, err
	}

	groupBy := schema.ValidDimensions(plan.GroupBy)
	groupBy = dropGlobal(groupBy)
	metricKeys := schema.ValidMetrics(plan.Metrics)

	needsDate := needsBusinessDate(groupBy)
	buckets := map[string]*bucket{}
	var order []string

	for i := range events {
		ev := &events[i]
		if needsDate && !ev.HasOperationDate() {
			continue
		}
		if !pred(ev) {
			continue
		}
		if !MatchesPeriod(ev, plan.Period, anchor) {
			continue
		}

		keyVals, ok := groupValues(ev, groupBy)
		if !ok {
			continue
		}
		key := strings.Join(keyVals, "\x1f")
		b := buckets[key]
		if b == nil {
			b = &bucket{dims: keyVals}
			buckets[key] = b
			order = append(order, key)
		}
		b.fold(ev)
	}

	rows := make([]models.Row, 0, len(buckets))
	for _, key := range order {
		b := buckets[key]
		row := models.Row{}
		for i, dim := range groupBy {
			row[dim] = dimValue(dim, b.dims[i])
		}
		b.emit(row, metricKeys)
		rows = append(rows, row)
	}

	sortRows(rows, plan, groupBy)
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
	}

	metrics.PlanExecutionDuration.WithLabelValues(shapeLabel(groupBy)).
		Observe(time.Since(started).Seconds())
	e.logger.Debug("plan executed", map[string]interface{}{
		"events": len(events),
		"rows":   len(rows),
	})
	return rows, nil
}

func (e *Engine) anchorDate(ctx context.Context) *time.Time {
	if e.anchor == nil {
		return nil
	}
	t, ok, err := e.anchor.Get(ctx)
	if err != nil {
		e.logger.Warn("anchor date unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if !ok {
		return nil
	}
	return &t
}

// pushdown translates plan conditions the store can narrow on. Everything is
// re-checked in process, so over-returning is safe.
func (e *Engine) pushdown(plan *models.QueryPlan, anchor *time.Time) store.Query {
	q := store.Query{}
	if id, ok := plan.Filters["vehicleId_eq"].(string); ok {
		q.VehicleID = id
	}
	if r, ok := ResolveRange(plan.Period, anchor); ok {
		q.TimeRange = &r
	}
	return q
}

type predicate func(*models.Event) bool

// compileFilters turns the filter map into one predicate. Unknown filter
// keys fail the plan rather than silently widening the result.
func compileFilters(filters map[string]interface{}) (predicate, error) {
	var preds []predicate
	for key, raw := range filters {
		p, err := compileFilter(key, raw)
		if err != nil {
			return nil, err
		}
		if p != nil {
			preds = append(preds, p)
		}
	}
	return func(ev *models.Event) bool {
		for _, p := range preds {
			if !p(ev) {
				return false
			}
		}
		return true
	}, nil
}

func compileFilter(key string, raw interface{}) (predicate, error) {
	switch key {
	case "materialName_contains":
		needle := nlp.Normalize(fmt.Sprintf("%v", raw))
		if needle == "" {
			return nil, nil
		}
		return func(ev *models.Event) bool {
			return strings.Contains(nlp.Normalize(ev.MaterialName), needle)
		}, nil

	case "hasFault":
		want, ok := raw.(bool)
		if !ok {
			return nil, errInvalidFilter(key, raw)
		}
		return func(ev *models.Event) bool { return ev.HasFault() == want }, nil

	case "vehicleId_eq":
		id := fmt.Sprintf("%v", raw)
		return func(ev *models.Event) bool { return ev.VehicleID == id }, nil

	case "vehicleType_eq":
		want := nlp.Normalize(fmt.Sprintf("%v", raw))
		return func(ev *models.Event) bool {
			return nlp.Normalize(ev.VehicleType) == want
		}, nil

	case "vehicleModel_eq":
		want := nlp.Normalize(fmt.Sprintf("%v", raw))
		return func(ev *models.Event) bool {
			return nlp.Normalize(ev.VehicleModel) == want
		}, nil

	case "manufacturer_eq":
		want := nlp.Normalize(fmt.Sprintf("%v", raw))
		return func(ev *models.Event) bool {
			return nlp.Normalize(ev.Manufacturer) == want
		}, nil

	case "customerId_eq":
		id := fmt.Sprintf("%v", raw)
		return func(ev *models.Event) bool { return ev.CustomerID == id }, nil

	case "serviceLocation_eq":
		loc := strings.ToUpper(fmt.Sprintf("%v", raw))
		return func(ev *models.Event) bool {
			return strings.EqualFold(ev.ServiceLocation, loc)
		}, nil

	case "faultCode_eq":
		code := fmt.Sprintf("%v", raw)
		return func(ev *models.Event) bool { return ev.FaultCode == code }, nil

	case "season_eq":
		season := fmt.Sprintf("%v", raw)
		return func(ev *models.Event) bool {
			if !ev.HasOperationDate() {
				return false
			}
			return matchesSeason(*ev.OperationDate, season, 0)
		}, nil

	case "month_eq":
		month, ok := asInt(raw)
		if !ok {
			return nil, errInvalidFilter(key, raw)
		}
		return func(ev *models.Event) bool {
			return ev.HasOperationDate() && int(ev.OperationDate.Month()) == month
		}, nil

	case "triggerMaterial_contains":
		// consumed by the sequence scan, not the aggregator
		return nil, nil
	}
	return nil, errInvalidFilter(key, raw)
}

func errInvalidFilter(key string, raw interface{}) error {
	return errors.NewInvalidFilterError(fmt.Sprintf("%s=%v", key, raw))
}

func asInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

func dropGlobal(dims []string) []string {
	var out []string
	for _, d := range dims {
		if dim, ok := schema.LookupDimension(d); ok && dim.Category == schema.CategoryGlobal {
			continue
		}
		out = append(out, d)
	}
	return out
}

// needsBusinessDate reports whether any group-by axis derives from the
// business date; events without one are excluded from such plans.
func needsBusinessDate(dims []string) bool {
	for _, d := range dims {
		if dim, ok := schema.LookupDimension(d); ok && dim.Category == schema.CategoryTime {
			return true
		}
	}
	return false
}

var turkishWeekdays = map[time.Weekday]string{
	time.Monday:    "pazartesi",
	time.Tuesday:   "sali",
	time.Wednesday: "carsamba",
	time.Thursday:  "persembe",
	time.Friday:    "cuma",
	time.Saturday:  "cumartesi",
	time.Sunday:    "pazar",
}

// groupValues derives the bucket key parts. ok is false when a dimension
// value is missing for this event; such events fall out of the grouping the
// same way null keys do in the store's own aggregations.
func groupValues(ev *models.Event, dims []string) ([]string, bool) {
	vals := make([]string, 0, len(dims))
	for _, d := range dims {
		v := ""
		switch d {
		case "materialName":
			v = ev.MaterialName
		case "materialCode":
			v = ev.MaterialCode
		case "materialFamily":
			v = ev.MaterialFamily()
		case "vehicle":
			v = strings.TrimPrefix(ev.VehicleID, "vehicle/")
		case "vehicleType":
			v = ev.VehicleType
		case "vehicleModel":
			v = ev.VehicleModel
		case "manufacturer":
			v = ev.Manufacturer
		case "customer":
			v = ev.CustomerID
		case "serviceLocation":
			v = ev.ServiceLocation
		case "faultCode":
			if !ev.HasFault() {
				return nil, false
			}
			v = ev.FaultCode
		case "verbType":
			v = string(ev.Verb)
		case "operationDate":
			if !ev.HasOperationDate() {
				return nil, false
			}
			v = ev.OperationDate.Format("2006-01-02")
		case "year":
			v = fmt.Sprintf("%d", ev.OperationDate.Year())
		case "month":
			v = fmt.Sprintf("%d", int(ev.OperationDate.Month()))
		case "week":
			_, week := ev.OperationDate.ISOWeek()
			v = fmt.Sprintf("%d", week)
		case "season":
			v = models.SeasonOf(ev.OperationDate.Month())
		case "dayOfWeek":
			v = turkishWeekdays[ev.OperationDate.Weekday()]
		}
		if v == "" {
			return nil, false
		}
		vals = append(vals, v)
	}
	return vals, true
}

// dimValue converts the string bucket part back to its natural type.
func dimValue(dim, raw string) interface{} {
	if d, ok := schema.LookupDimension(dim); ok && d.Type == "int" {
		var n int
		fmt.Sscanf(raw, "%d", &n)
		return n
	}
	return raw
}

type bucket struct {
	dims  []string
	count int64

	sumQuantity float64
	sumCost     float64
	sumDiscount float64
	costCount   int64
}

func (b *bucket) fold(ev *models.Event) {
	b.count++
	if ev.Quantity != nil {
		b.sumQuantity += *ev.Quantity
	}
	if ev.Cost != nil {
		b.sumCost += *ev.Cost
		b.costCount++
	}
	if ev.Discount != nil {
		b.sumDiscount += *ev.Discount
	}
}

func (b *bucket) emit(row models.Row, metricKeys []string) {
	for _, m := range metricKeys {
		switch m {
		case "count":
			row["count"] = b.count
		case "sum_quantity":
			row["sum_quantity"] = round2(b.sumQuantity)
		case "sum_cost":
			row["sum_cost"] = round2(b.sumCost)
		case "sum_discount":
			row["sum_discount"] = round2(b.sumDiscount)
		case "avg_cost":
			if b.costCount > 0 {
				row["avg_cost"] = round2(b.sumCost / float64(b.costCount))
			} else {
				row["avg_cost"] = 0.0
			}
		}
		// computed metrics (change_rate, probability) come from pattern
		// scans, never from the aggregator
	}
	if _, ok := row["count"]; !ok {
		row["count"] = b.count
	}
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// seasonRank fixes the Turkish season ordering used by seasonal rows.
var seasonRank = map[string]int{"kis": 0, "ilkbahar": 1, "yaz": 2, "sonbahar": 3}

func sortRows(rows []models.Row, plan *models.QueryPlan, groupBy []string) {
	sortKey := plan.Sort
	if sortKey == "" {
		sortKey = "count"
	}

	if sortKey == "period" || sortKey == "operationDate" {
		// time axis defaults to ascending
		desc := plan.SortDir == "desc"
		sort.SliceStable(rows, func(i, j int) bool {
			c := comparePeriod(rows[i], rows[j], groupBy)
			if desc {
				return c > 0
			}
			return c < 0
		})
		return
	}

	if _, ok := schema.LookupMetric(sortKey); ok {
		// metrics default to descending
		asc := plan.SortDir == "asc"
		sort.SliceStable(rows, func(i, j int) bool {
			if asc {
				return metricOf(rows[i], sortKey) < metricOf(rows[j], sortKey)
			}
			return metricOf(rows[i], sortKey) > metricOf(rows[j], sortKey)
		})
		return
	}

	// dimension sort defaults to ascending
	desc := plan.SortDir == "desc"
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return fmt.Sprintf("%v", rows[i][sortKey]) > fmt.Sprintf("%v", rows[j][sortKey])
		}
		return fmt.Sprintf("%v", rows[i][sortKey]) < fmt.Sprintf("%v", rows[j][sortKey])
	})
}

func comparePeriod(a, b models.Row, groupBy []string) int {
	for _, dim := range groupBy {
		d, ok := schema.LookupDimension(dim)
		if !ok || (d.Category != schema.CategoryTime && dim != "operationDate") {
			continue
		}
		av, bv := a[dim], b[dim]
		if dim == "season" {
			ar, br := seasonRank[fmt.Sprintf("%v", av)], seasonRank[fmt.Sprintf("%v", bv)]
			if ar != br {
				if ar < br {
					return -1
				}
				return 1
			}
			continue
		}
		as, bs := fmt.Sprintf("%v", av), fmt.Sprintf("%v", bv)
		if ai, aok := av.(int); aok {
			if bi, bok := bv.(int); bok {
				if ai != bi {
					if ai < bi {
						return -1
					}
					return 1
				}
				continue
			}
		}
		if as != bs {
			if as < bs {
				return -1
			}
			return 1
		}
	}
	return 0
}

func metricOf(row models.Row, key string) float64 {
	switch v := row[key].(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func shapeLabel(groupBy []string) string {
	if len(groupBy) == 0 {
		return "global"
	}
	return groupBy[0]
}
