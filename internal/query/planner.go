package query

import (
	"strings"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
	"fleet-insights/internal/schema"
)

const (
	defaultTopLimit  = 10
	defaultListLimit = 100
)

// Planner turns a classified question into an executable query plan. Every
// dimension and metric key is resolved against the schema registry; keys the
// registry does not know are dropped rather than guessed.
type Planner struct {
	logger logger.Logger
}

// NewPlanner builds a planner.
func NewPlanner(log logger.Logger) *Planner {
	return &Planner{logger: log}
}

// Build resolves the plan for one classified question. cq is the matched
// canonical question, nil when the layered path classified it.
func (p *Planner) Build(res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion) *models.QueryPlan {
	ents := &res.Entities

	if res.QuestionType == models.QuestionNextMaintenance {
		return p.buildNextMaintenancePlan(ents)
	}

	plan := &models.QueryPlan{
		Filters: map[string]interface{}{},
	}

	groupBy := p.resolveDimensions(res, cq)
	plan.GroupBy = schema.ValidDimensions(groupBy)

	plan.Metrics = schema.ValidMetrics(p.resolveMetrics(res, cq))

	p.applyFilters(plan, res, cq)

	// a fixed canonical period beats whatever the question names
	if cq != nil && cq.Period != nil {
		period := *cq.Period
		plan.Period = &period
	} else {
		plan.Period = BuildPeriod(ents)
	}

	plan.Limit = p.resolveLimit(res, cq)
	plan.Sort, plan.SortDir = p.resolveSort(res, cq, plan)

	p.logger.Debug("plan built", map[string]interface{}{
		"groupBy": plan.GroupBy,
		"metrics": plan.Metrics,
		"filters": plan.Filters,
		"limit":   plan.Limit,
		"sort":    plan.Sort,
		"sortDir": plan.SortDir,
	})
	return plan
}

func (p *Planner) buildNextMaintenancePlan(ents *models.ExtractedEntities) *models.QueryPlan {
	plan := &models.QueryPlan{
		GroupBy: []string{"materialName"},
		Metrics: []string{"count", "probability"},
		Filters: map[string]interface{}{},
		Limit:   defaultTopLimit,
		Sort:    "count",
	}
	if ents.ConditionMaterial != "" {
		plan.Filters["triggerMaterial_contains"] = ents.ConditionMaterial
	}
	if len(ents.VehicleModels) > 0 {
		plan.Filters["vehicleModel_eq"] = ents.VehicleModels[0]
	}
	if ents.TopLimit > 0 {
		plan.Limit = ents.TopLimit
	}
	return plan
}

// resolveDimensions picks the group-by axes: shape-mandated time dimensions
// first or last depending on shape, primary dimension from the catalog, the
// detector, or the intent default.
func (p *Planner) resolveDimensions(res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion) []string {
	ents := &res.Entities
	qn := res.Normalized

	primary := ""
	secondary := ""
	timeDim := ""
	groupDim := ""
	if cq != nil {
		primary = cq.PrimaryDimension
		secondary = cq.SecondaryDimension
		timeDim = cq.TimeDimension
		groupDim = cq.GroupDimension
	}

	if primary == "" {
		if dim, score := nlp.DetectDimension(qn); score > 0 {
			primary = dim
		}
	}
	if primary == "" {
		primary = nlp.DefaultDimensionForIntent[res.QuestionType]
	}

	// entity overrides: explicit mentions beat keyword detection
	switch {
	case strings.Contains(qn, "gunlere") || strings.Contains(qn, "haftanin gun"):
		primary = "dayOfWeek"
	case len(ents.VehicleModels) > 0 && res.QuestionType == models.QuestionVehicleAnalysis:
		primary = "vehicleModel"
	case len(ents.VehicleTypes) > 0 && res.QuestionType == models.QuestionVehicleAnalysis:
		primary = "vehicleType"
	case len(ents.VehicleIDs) > 1:
		primary = "vehicle"
	case strings.Contains(qn, "malzeme ailesi") || strings.Contains(qn, "malzeme grubu"):
		primary = "materialFamily"
	}

	var dims []string
	add := func(d string) {
		if d == "" {
			return
		}
		for _, existing := range dims {
			if existing == d {
				return
			}
		}
		dims = append(dims, d)
	}

	switch res.OutputShape {
	case models.ShapeTimeSeries:
		if timeDim == "" || timeDim == "auto" {
			timeDim = pickTimeDimension(qn, ents)
		}
		add(timeDim)
		add(primary)
	case models.ShapeSeasonal:
		add("season")
		add(primary)
	case models.ShapePivot:
		add(primary)
		if secondary == "" {
			secondary = "season"
		}
		add(secondary)
	case models.ShapeTopPerGroup:
		if groupDim == "" {
			groupDim = pickGroupDimension(qn)
		}
		add(groupDim)
		add(primary)
	case models.ShapeSummary:
		add("total")
	default:
		add(primary)
	}
	return dims
}

func pickTimeDimension(qn string, ents *models.ExtractedEntities) string {
	switch {
	case strings.Contains(qn, "gunlere") || strings.Contains(qn, "gun bazinda") ||
		strings.Contains(qn, "haftanin gun"):
		return "dayOfWeek"
	case strings.Contains(qn, "hafta"):
		return "week"
	case strings.Contains(qn, "aylara") || strings.Contains(qn, "ay bazinda") ||
		strings.Contains(qn, "aylik") || len(ents.Months) > 0:
		return "month"
	}
	return "year"
}

func pickGroupDimension(qn string) string {
	switch {
	case strings.Contains(qn, "mevsim") || strings.Contains(qn, "sezon"):
		return "season"
	case strings.Contains(qn, "model"):
		return "vehicleModel"
	case strings.Contains(qn, "tip"):
		return "vehicleType"
	}
	return "vehicleType"
}

func (p *Planner) resolveMetrics(res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion) []string {
	if cq != nil && len(cq.Metrics) > 0 {
		return cq.Metrics
	}
	switch res.QuestionType {
	case models.QuestionCostAnalysis:
		return []string{"sum_cost", "avg_cost", "count"}
	case models.QuestionMaterialUsage:
		return []string{"count", "sum_quantity", "sum_cost"}
	default:
		return []string{"count"}
	}
}

// genericMaterialPhrases are questions about materials in general; their
// material keyword must not become a name filter.
var genericMaterialPhrases = []string{
	"hangi malzemeler", "hangi malzeme", "hangi parcalar",
	"en cok kullanilan", "malzeme kullanimi", "malzeme dagilimi",
	"tum malzemeler",
}

func (p *Planner) applyFilters(plan *models.QueryPlan, res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion) {
	ents := &res.Entities
	qn := res.Normalized

	if cq != nil {
		for k, v := range cq.DefaultFilters {
			plan.Filters[k] = v
		}
	}

	if len(ents.VehicleIDs) == 1 {
		plan.Filters["vehicleId_eq"] = ents.VehicleIDs[0]
	}
	if len(ents.VehicleTypes) > 0 {
		plan.Filters["vehicleType_eq"] = ents.VehicleTypes[0]
	}
	if len(ents.VehicleModels) > 0 {
		plan.Filters["vehicleModel_eq"] = ents.VehicleModels[0]
	}
	if len(ents.Manufacturers) > 0 {
		plan.Filters["manufacturer_eq"] = ents.Manufacturers[0]
	}
	if len(ents.CustomerIDs) > 0 {
		plan.Filters["customerId_eq"] = ents.CustomerIDs[0]
	}
	if len(ents.ServiceLocations) > 0 {
		plan.Filters["serviceLocation_eq"] = ents.ServiceLocations[0]
	}
	if len(ents.FaultCodes) > 0 {
		plan.Filters["faultCode_eq"] = ents.FaultCodes[0]
	}
	if res.QuestionType == models.QuestionFaultAnalysis {
		plan.Filters["hasFault"] = true
	}

	if len(ents.MaterialKeywords) > 0 && !nlp.ContainsAny(qn, genericMaterialPhrases) {
		kw := ents.MaterialKeywords[0]
		if kw != "" {
			plan.Filters["materialName_contains"] = kw
		}
	}

	// bare months only filter when no year narrows the window already
	if len(ents.Seasons) > 0 && res.OutputShape != models.ShapeSeasonal {
		plan.Filters["season_eq"] = ents.Seasons[0]
	}
	if len(ents.Months) > 0 && len(ents.Years) == 0 {
		plan.Filters["month_eq"] = ents.Months[0]
	}
}

func (p *Planner) resolveLimit(res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion) int {
	ents := &res.Entities
	switch res.OutputShape {
	case models.ShapeTopList, models.ShapeTopPerGroup:
		if ents.TopLimit > 0 {
			return ents.TopLimit
		}
		if cq != nil && cq.DefaultLimit > 0 {
			return cq.DefaultLimit
		}
		return defaultTopLimit
	default:
		if cq != nil && cq.DefaultLimit > 0 {
			return cq.DefaultLimit
		}
		return defaultListLimit
	}
}

func (p *Planner) resolveSort(res *models.IntentAnalysisResult, cq *nlp.CanonicalQuestion, plan *models.QueryPlan) (string, string) {
	dir := ""
	if cq != nil {
		dir = cq.SortOrder
	}
	if cq != nil && cq.SortMetric != "" {
		if _, ok := schema.LookupMetric(cq.SortMetric); ok {
			return cq.SortMetric, dir
		}
		// time-axis sorts are not metrics but the engine understands them
		if cq.SortMetric == "period" || cq.SortMetric == "operationDate" {
			return cq.SortMetric, dir
		}
	}
	if res.Entities.HasTopSignal {
		for _, d := range plan.GroupBy {
			if d == "materialName" {
				for _, m := range plan.Metrics {
					if m == "sum_quantity" {
						return "sum_quantity", dir
					}
				}
			}
		}
	}
	return "count", dir
}
