package models

import "time"

// PeriodKind enumerates the supported period specifications.
type PeriodKind string

const (
	PeriodYear     PeriodKind = "year"
	PeriodMonth    PeriodKind = "month"
	PeriodSeason   PeriodKind = "season"
	PeriodRelative PeriodKind = "relative"
	PeriodRange    PeriodKind = "range"
)

// Season keys used across period filters and pivot buckets.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
)

// PeriodSpec describes a time period extracted from a question or fixed by a
// canonical question. Pure value type.
type PeriodSpec struct {
	Kind      PeriodKind `json:"kind"`
	Year      int        `json:"year,omitempty"`
	Month     int        `json:"month,omitempty"`
	Season    string     `json:"season,omitempty"`
	Unit      string     `json:"unit,omitempty"`  // "month" or "year" for relative periods
	Value     int        `json:"value,omitempty"` // N for relative periods
	StartDate string     `json:"startDate,omitempty"`
	EndDate   string     `json:"endDate,omitempty"`
}

// TimeRange is a concrete [Start, End) window resolved from a PeriodSpec.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window (inclusive start,
// exclusive end).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// QueryPlan is the fully resolved filter/group/aggregate description handed
// to the execution engine. Every group-by and metric key is expected to be
// schema-resolvable; unknown keys are dropped at build time.
type QueryPlan struct {
	GroupBy []string               `json:"groupBy,omitempty"`
	Metrics []string               `json:"metrics,omitempty"`
	Filters map[string]interface{} `json:"filters,omitempty"`
	Period  *PeriodSpec            `json:"period,omitempty"`
	Sort    string                 `json:"sort,omitempty"`
	SortDir string                 `json:"sortDir,omitempty"` // "asc" or "desc"; empty uses the sort key's natural direction
	Limit   int                    `json:"limit,omitempty"`
}

// Row is one flat result record. Keys are dimension keys plus metric keys.
type Row map[string]interface{}
