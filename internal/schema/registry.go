// Package schema is the single source of truth for queryable dimensions and
// metrics. Planners and engines resolve every group-by and metric key here;
// keys the registry does not know are dropped instead of guessed at.
package schema

// DimensionCategory groups dimensions by how the engine materializes them.
type DimensionCategory string

const (
	CategoryEntity  DimensionCategory = "entity"  // read straight off the event
	CategoryTime    DimensionCategory = "time"    // derived from the business date
	CategoryDerived DimensionCategory = "derived" // computed from another field
	CategoryGlobal  DimensionCategory = "global"  // single implicit bucket
)

// Dimension describes one group-by axis. Path is the field on the coalesced
// event; Candidates are the raw document paths the store coalesces from, in
// precedence order (legacy documents carry two alternative roots).
type Dimension struct {
	Key        string
	Path       string
	Candidates []string
	Derived    bool
	Type       string // "string", "int", "date"
	Category   DimensionCategory
}

// MetricKind tells the engine how to fold event values into a bucket.
type MetricKind string

const (
	MetricCount       MetricKind = "count"
	MetricSum         MetricKind = "sum"
	MetricAvg         MetricKind = "avg"
	MetricComputed    MetricKind = "computed" // produced by a pattern scan, not the aggregator
	MetricProbability MetricKind = "probability"
)

// Metric describes one aggregatable measure. Source is the event field the
// fold reads; empty for count and computed metrics.
type Metric struct {
	Key    string
	Kind   MetricKind
	Source string
}

var dimensions = map[string]Dimension{
	"materialName": {
		Key:  "materialName",
		Path: "materialName",
		Candidates: []string{
			"object.definition.name.tr-TR",
			"object.definition.name.en-US",
			"context.extensions.materialName",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"materialCode": {
		Key:  "materialCode",
		Path: "materialCode",
		Candidates: []string{
			"object.id",
			"context.extensions.materialCode",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"materialFamily": {
		Key:      "materialFamily",
		Path:     "materialCode",
		Derived:  true,
		Type:     "string",
		Category: CategoryDerived,
	},
	"vehicle": {
		Key:  "vehicle",
		Path: "vehicleId",
		Candidates: []string{
			"actor.account.name",
			"context.extensions.vehicleId",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"vehicleType": {
		Key:  "vehicleType",
		Path: "vehicleType",
		Candidates: []string{
			"context.extensions.vehicleType",
			"context.extensions.vehicletype",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"vehicleModel": {
		Key:  "vehicleModel",
		Path: "vehicleModel",
		Candidates: []string{
			"context.extensions.vehicleModel",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"manufacturer": {
		Key:  "manufacturer",
		Path: "manufacturer",
		Candidates: []string{
			"context.extensions.manufacturer",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"customer": {
		Key:  "customer",
		Path: "customerId",
		Candidates: []string{
			"context.extensions.customerId",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"serviceLocation": {
		Key:  "serviceLocation",
		Path: "serviceLocation",
		Candidates: []string{
			"context.contextActivities.grouping.id",
			"context.extensions.serviceLocation",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"faultCode": {
		Key:  "faultCode",
		Path: "faultCode",
		Candidates: []string{
			"context.extensions.faultCode",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"verbType": {
		Key:  "verbType",
		Path: "verb",
		Candidates: []string{
			"verb.id",
		},
		Type:     "string",
		Category: CategoryEntity,
	},
	"operationDate": {
		Key:  "operationDate",
		Path: "operationDate",
		Candidates: []string{
			"context.extensions.operationDate",
			"context.extensions.recordDate",
		},
		Type:     "date",
		Category: CategoryEntity,
	},
	"year":      {Key: "year", Path: "operationDate", Derived: true, Type: "int", Category: CategoryTime},
	"month":     {Key: "month", Path: "operationDate", Derived: true, Type: "int", Category: CategoryTime},
	"week":      {Key: "week", Path: "operationDate", Derived: true, Type: "int", Category: CategoryTime},
	"season":    {Key: "season", Path: "operationDate", Derived: true, Type: "string", Category: CategoryTime},
	"dayOfWeek": {Key: "dayOfWeek", Path: "operationDate", Derived: true, Type: "string", Category: CategoryTime},
	"total":     {Key: "total", Category: CategoryGlobal},
}

var metrics = map[string]Metric{
	"count":        {Key: "count", Kind: MetricCount},
	"sum_quantity": {Key: "sum_quantity", Kind: MetricSum, Source: "quantity"},
	"sum_cost":     {Key: "sum_cost", Kind: MetricSum, Source: "cost"},
	"avg_cost":     {Key: "avg_cost", Kind: MetricAvg, Source: "cost"},
	"sum_discount": {Key: "sum_discount", Kind: MetricSum, Source: "discount"},
	"change_rate":  {Key: "change_rate", Kind: MetricComputed},
	"probability":  {Key: "probability", Kind: MetricProbability},
}

// LookupDimension resolves a dimension key.
func LookupDimension(key string) (Dimension, bool) {
	d, ok := dimensions[key]
	return d, ok
}

// LookupMetric resolves a metric key.
func LookupMetric(key string) (Metric, bool) {
	m, ok := metrics[key]
	return m, ok
}

// ValidDimensions filters keys down to the ones the registry knows, keeping
// order. Unknown keys are silently dropped.
func ValidDimensions(keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := dimensions[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ValidMetrics filters metric keys the same way, guaranteeing count is
// present so every result row carries at least one measure.
func ValidMetrics(keys []string) []string {
	var out []string
	seen := false
	for _, k := range keys {
		if _, ok := metrics[k]; ok {
			out = append(out, k)
			if k == "count" {
				seen = true
			}
		}
	}
	if !seen {
		out = append(out, "count")
	}
	return out
}

// DimensionKeys returns every registered dimension key.
func DimensionKeys() []string {
	out := make([]string, 0, len(dimensions))
	for k := range dimensions {
		out = append(out, k)
	}
	return out
}
