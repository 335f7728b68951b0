package nlp

import (
	"strings"

	"fleet-insights/internal/models"
)

// CanonicalQuestion is one predefined keyword-trigger -> intent/shape/plan
// template used as the first-pass classifier. The catalog is built once at
// startup and never mutated.
type CanonicalQuestion struct {
	QuestionType models.QuestionType
	OutputShape  models.OutputShape

	PrimaryDimension   string
	SecondaryDimension string
	TimeDimension      string
	GroupDimension     string

	Metrics    []string
	SortMetric string
	SortOrder  string

	DefaultLimit   int
	DefaultFilters map[string]interface{}
	Period         *models.PeriodSpec

	ExtraTriggers []string
	Description   string
}

// AllTriggers merges the intent triggers, shape triggers and this question's
// extra triggers.
func (cq *CanonicalQuestion) AllTriggers() []string {
	var out []string
	out = append(out, intentTriggers[cq.QuestionType]...)
	out = append(out, shapeTriggers[cq.OutputShape]...)
	out = append(out, cq.ExtraTriggers...)
	return out
}

// Matches scores the question against the trigger set. Confidence is
// matched/min(4, total), capped at 1.
func (cq *CanonicalQuestion) Matches(qn string) (bool, float64) {
	triggers := cq.AllTriggers()
	if len(triggers) == 0 {
		return false, 0
	}
	matched := 0
	for _, t := range triggers {
		if strings.Contains(qn, t) {
			matched++
		}
	}
	if matched == 0 {
		return false, 0
	}
	denom := len(triggers)
	if denom > 4 {
		denom = 4
	}
	conf := float64(matched) / float64(denom)
	if conf > 1 {
		conf = 1
	}
	return true, conf
}

// intentShapeCompatibility lists the valid shapes per intent; heuristic
// pairings outside the table are corrected to the intent's default shape.
var intentShapeCompatibility = map[models.QuestionType][]models.OutputShape{
	models.QuestionMaterialUsage: {
		models.ShapeTopList, models.ShapeDetailList, models.ShapeTimeSeries,
		models.ShapeSeasonal, models.ShapeDistribution, models.ShapePivot,
		models.ShapeTopPerGroup, models.ShapeTrend,
	},
	models.QuestionCostAnalysis: {
		models.ShapeTopList, models.ShapeTimeSeries, models.ShapeSeasonal,
		models.ShapeDistribution, models.ShapePivot, models.ShapeTrend,
		models.ShapeSummary, models.ShapeComparison,
	},
	models.QuestionFaultAnalysis: {
		models.ShapeTopList, models.ShapeTimeSeries, models.ShapeSeasonal,
		models.ShapeDistribution, models.ShapeTopPerGroup,
	},
	models.QuestionMaintenanceHistory: {
		models.ShapeDetailList, models.ShapeTimeSeries, models.ShapeSeasonal,
		models.ShapeDistribution, models.ShapeSummary, models.ShapePivot,
	},
	models.QuestionVehicleAnalysis: {
		models.ShapeTopList, models.ShapeDetailList, models.ShapeTimeSeries,
		models.ShapeDistribution,
	},
	models.QuestionCustomerAnalysis: {
		models.ShapeTopList, models.ShapeDetailList, models.ShapeDistribution,
	},
	models.QuestionServiceAnalysis: {
		models.ShapeTopList, models.ShapeTimeSeries, models.ShapeDistribution,
	},
	models.QuestionNextMaintenance: {models.ShapeSequence, models.ShapeTopList},
	models.QuestionPatternAnalysis: {models.ShapeSequence, models.ShapeTopList},
	models.QuestionComparison:      {models.ShapeComparison},
}

// IsCompatible reports whether the intent/shape pairing is valid.
func IsCompatible(intent models.QuestionType, shape models.OutputShape) bool {
	for _, s := range intentShapeCompatibility[intent] {
		if s == shape {
			return true
		}
	}
	return false
}

// defaultShapeForIntent is the substitution used by the compatibility
// correction and the no-signal fallback.
var defaultShapeForIntent = map[models.QuestionType]models.OutputShape{
	models.QuestionMaterialUsage:      models.ShapeTopList,
	models.QuestionCostAnalysis:       models.ShapeSummary,
	models.QuestionFaultAnalysis:      models.ShapeTopList,
	models.QuestionMaintenanceHistory: models.ShapeDetailList,
	models.QuestionVehicleAnalysis:    models.ShapeTopList,
	models.QuestionCustomerAnalysis:   models.ShapeTopList,
	models.QuestionServiceAnalysis:    models.ShapeTopList,
	models.QuestionNextMaintenance:    models.ShapeSequence,
	models.QuestionPatternAnalysis:    models.ShapeSequence,
	models.QuestionComparison:         models.ShapeComparison,
}

// DefaultDimensionForIntent is the group-by dimension used when the question
// names none.
var DefaultDimensionForIntent = map[models.QuestionType]string{
	models.QuestionMaterialUsage:      "materialName",
	models.QuestionCostAnalysis:       "materialName",
	models.QuestionFaultAnalysis:      "faultCode",
	models.QuestionMaintenanceHistory: "operationDate",
	models.QuestionVehicleAnalysis:    "vehicle",
	models.QuestionCustomerAnalysis:   "customer",
	models.QuestionServiceAnalysis:    "serviceLocation",
	models.QuestionNextMaintenance:    "materialName",
	models.QuestionPatternAnalysis:    "materialName",
	models.QuestionComparison:         "vehicleType",
}

// Catalog returns the static canonical-question registry.
func Catalog() []CanonicalQuestion {
	return canonicalCatalog
}

var canonicalCatalog = []CanonicalQuestion{
	// material usage
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "materialName",
		Metrics:          []string{"count", "sum_quantity", "sum_cost"},
		SortMetric:       "sum_quantity",
		DefaultLimit:     10,
		Description:      "most used materials",
	},
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeSeasonal,
		PrimaryDimension: "materialName",
		TimeDimension:    "season",
		Metrics:          []string{"count", "sum_quantity"},
		SortMetric:       "count",
		DefaultLimit:     10,
		Description:      "material usage by season",
	},
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeTopPerGroup,
		PrimaryDimension: "materialName",
		GroupDimension:   "vehicleType",
		Metrics:          []string{"count", "sum_quantity"},
		SortMetric:       "count",
		DefaultLimit:     5,
		ExtraTriggers:    []string{"arac tipi", "her tip"},
		Description:      "top materials per vehicle type",
	},
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeTopPerGroup,
		PrimaryDimension: "materialName",
		GroupDimension:   "vehicleModel",
		Metrics:          []string{"count", "sum_quantity"},
		SortMetric:       "count",
		DefaultLimit:     5,
		ExtraTriggers:    []string{"model", "her model", "modele gore"},
		Description:      "top materials per vehicle model",
	},
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeTopPerGroup,
		PrimaryDimension: "materialName",
		GroupDimension:   "season",
		TimeDimension:    "year",
		Metrics:          []string{"count", "sum_quantity"},
		SortMetric:       "count",
		DefaultLimit:     5,
		ExtraTriggers: []string{
			"mevsim", "mevsimlere gore", "mevsime gore",
			"her mevsim", "mevsimde", "mevsimlerde",
			"yillara ve mevsimlere", "yillar ve mevsimler",
		},
		Description: "top materials per year and season",
	},
	{
		QuestionType:     models.QuestionMaterialUsage,
		OutputShape:      models.ShapeTimeSeries,
		PrimaryDimension: "materialName",
		TimeDimension:    "year",
		Metrics:          []string{"count", "sum_quantity", "sum_cost"},
		SortMetric:       "count",
		SortOrder:        "asc",
		Description:      "material usage over the years",
	},
	{
		QuestionType:       models.QuestionMaterialUsage,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "materialName",
		SecondaryDimension: "season",
		TimeDimension:      "year",
		Metrics:            []string{"count", "sum_quantity"},
		ExtraTriggers:      []string{"yillara ve mevsimlere", "capraz"},
		Description:        "year x season material pivot",
	},

	// fault analysis
	{
		QuestionType:     models.QuestionFaultAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "faultCode",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		DefaultLimit:     10,
		DefaultFilters:   map[string]interface{}{"hasFault": true},
		Description:      "most frequent fault codes",
	},
	{
		QuestionType:     models.QuestionFaultAnalysis,
		OutputShape:      models.ShapeSeasonal,
		PrimaryDimension: "faultCode",
		TimeDimension:    "season",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		DefaultFilters:   map[string]interface{}{"hasFault": true},
		Description:      "seasonal fault distribution",
	},
	{
		QuestionType:     models.QuestionFaultAnalysis,
		OutputShape:      models.ShapeTopPerGroup,
		PrimaryDimension: "faultCode",
		GroupDimension:   "vehicleModel",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		DefaultLimit:     5,
		DefaultFilters:   map[string]interface{}{"hasFault": true},
		ExtraTriggers:    []string{"model", "modelde", "belirli model"},
		Description:      "top faults per vehicle model",
	},
	{
		QuestionType:     models.QuestionFaultAnalysis,
		OutputShape:      models.ShapeTrend,
		PrimaryDimension: "faultCode",
		TimeDimension:    "auto",
		Metrics:          []string{"count"},
		DefaultFilters:   map[string]interface{}{"hasFault": true},
		ExtraTriggers:    []string{"artan", "artis", "yukselen", "trend", "zamanla"},
		Description:      "faults rising over time",
	},
	{
		QuestionType:     models.QuestionFaultAnalysis,
		OutputShape:      models.ShapeDistribution,
		PrimaryDimension: "dayOfWeek",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		DefaultFilters:   map[string]interface{}{"hasFault": true},
		ExtraTriggers: []string{
			"gunlere gore", "gunlerine gore", "gun bazinda", "gunlere",
			"haftanin gunleri", "hangi gunlerde",
		},
		Description: "fault distribution by day of week",
	},

	// vehicle analysis
	{
		QuestionType:     models.QuestionVehicleAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "vehicleModel",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "count",
		DefaultLimit:     10,
		ExtraTriggers:    []string{"model", "modeli", "modelleri"},
		Description:      "most serviced vehicle models",
	},
	{
		QuestionType:     models.QuestionVehicleAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "vehicle",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "count",
		DefaultLimit:     10,
		ExtraTriggers:    []string{"plaka", "araclar"},
		Description:      "most serviced vehicles",
	},
	{
		QuestionType:     models.QuestionVehicleAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "vehicleType",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "count",
		DefaultLimit:     10,
		ExtraTriggers:    []string{"tip", "tipi", "tipleri"},
		Description:      "most serviced vehicle types",
	},

	// customer analysis
	{
		QuestionType:     models.QuestionCustomerAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "customer",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "count",
		DefaultLimit:     10,
		Description:      "most frequent customers",
	},

	// maintenance history
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeDetailList,
		PrimaryDimension: "operationDate",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "operationDate",
		SortOrder:        "desc",
		DefaultLimit:     50,
		ExtraTriggers:    []string{"gecmis", "kayit", "kayitlar"},
		Description:      "vehicle maintenance history detail list",
	},
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeTimeSeries,
		PrimaryDimension: "verbType",
		TimeDimension:    "month",
		Metrics:          []string{"count"},
		SortMetric:       "period",
		SortOrder:        "asc",
		ExtraTriggers:    []string{"ay bazinda", "aylik", "aylara"},
		Description:      "monthly maintenance/repair counts",
	},
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeTimeSeries,
		PrimaryDimension: "verbType",
		TimeDimension:    "year",
		Metrics:          []string{"count"},
		SortMetric:       "period",
		SortOrder:        "asc",
		ExtraTriggers:    []string{"yillara gore", "yil bazinda", "yillik"},
		Description:      "yearly maintenance/repair distribution",
	},
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeSeasonal,
		PrimaryDimension: "verbType",
		TimeDimension:    "season",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		ExtraTriggers:    []string{"mevsimlere gore bakim", "mevsim bazinda bakim", "mevsimsel bakim"},
		Description:      "seasonal maintenance/repair distribution",
	},
	{
		QuestionType:       models.QuestionMaintenanceHistory,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "verbType",
		SecondaryDimension: "vehicleType",
		Metrics:            []string{"count"},
		SortMetric:         "count",
		ExtraTriggers:      []string{"arac tiplerine gore bakim", "tip bazinda bakim", "arac tipi bakim"},
		Description:        "maintenance/repair by vehicle type pivot",
	},
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeDistribution,
		PrimaryDimension: "verbType",
		Metrics:          []string{"count"},
		Description:      "maintenance vs repair distribution",
	},
	{
		QuestionType:       models.QuestionMaintenanceHistory,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "verbType",
		SecondaryDimension: "vehicleModel",
		Metrics:            []string{"count"},
		ExtraTriggers: []string{
			"arac modeli", "model bazinda", "modellere gore bakim",
			"modellere gore onarim",
		},
		Description: "maintenance/repair by vehicle model pivot",
	},
	{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeDistribution,
		PrimaryDimension: "dayOfWeek",
		Metrics:          []string{"count"},
		SortMetric:       "count",
		ExtraTriggers:    []string{"gunlere gore", "haftanin gunleri", "gun bazinda", "gunlere"},
		Description:      "operations by day of week",
	},
	{
		QuestionType:       models.QuestionMaintenanceHistory,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "dayOfWeek",
		SecondaryDimension: "verbType",
		Metrics:            []string{"count"},
		SortMetric:         "count",
		ExtraTriggers:      []string{"gunlere gore bakim onarim", "haftanin gunleri bakim"},
		Description:        "day of week x verb type pivot",
	},
	{
		QuestionType:       models.QuestionMaintenanceHistory,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "vehicleModel",
		SecondaryDimension: "verbType",
		Metrics:            []string{"count"},
		SortMetric:         "count",
		ExtraTriggers: []string{
			"model bazinda", "modele gore", "modellere gore",
			"arac modeli", "arac modelleri", "arac modellerinin",
			"her model icin", "model icin",
		},
		Description: "vehicle model x verb type pivot",
	},
	{
		QuestionType:       models.QuestionMaintenanceHistory,
		OutputShape:        models.ShapePivot,
		PrimaryDimension:   "vehicleType",
		SecondaryDimension: "verbType",
		Metrics:            []string{"count"},
		SortMetric:         "count",
		ExtraTriggers: []string{
			"tip bazinda", "tipe gore", "tiplere gore",
			"arac tipi", "arac tipleri", "arac tiplerinin",
			"her tip icin", "tip icin",
		},
		Description: "vehicle type x verb type pivot",
	},

	// cost analysis
	{
		QuestionType:     models.QuestionCostAnalysis,
		OutputShape:      models.ShapeTrend,
		PrimaryDimension: "materialName",
		TimeDimension:    "year",
		Metrics:          []string{"avg_cost", "change_rate"},
		SortMetric:       "change_rate",
		SortOrder:        "desc",
		DefaultLimit:     10,
		Period:           &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3},
		ExtraTriggers:    []string{"fiyat", "artis", "artan"},
		Description:      "materials with the steepest price increase",
	},
	{
		QuestionType:     models.QuestionCostAnalysis,
		OutputShape:      models.ShapeTrend,
		PrimaryDimension: "materialFamily",
		TimeDimension:    "season",
		Metrics:          []string{"avg_cost", "change_rate"},
		SortMetric:       "change_rate",
		SortOrder:        "desc",
		Period:           &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3},
		ExtraTriggers:    []string{"malzeme ailesi", "aile", "kategori"},
		Description:      "material families with rising prices per season",
	},
	{
		QuestionType:     models.QuestionCostAnalysis,
		OutputShape:      models.ShapeSummary,
		PrimaryDimension: "total",
		Metrics:          []string{"sum_cost", "avg_cost", "count"},
		Description:      "total cost summary",
	},

	// next maintenance
	{
		QuestionType:     models.QuestionNextMaintenance,
		OutputShape:      models.ShapeSequence,
		PrimaryDimension: "materialName",
		Metrics:          []string{"count", "probability"},
		SortMetric:       "count",
		DefaultLimit:     10,
		Description:      "materials replaced at the following visit",
	},

	// service analysis
	{
		QuestionType:     models.QuestionServiceAnalysis,
		OutputShape:      models.ShapeTimeSeries,
		PrimaryDimension: "serviceLocation",
		TimeDimension:    "week",
		Metrics:          []string{"count"},
		SortMetric:       "period",
		ExtraTriggers:    []string{"hafta", "haftalik"},
		Description:      "weekly service load",
	},
	{
		QuestionType:     models.QuestionServiceAnalysis,
		OutputShape:      models.ShapeTopList,
		PrimaryDimension: "serviceLocation",
		Metrics:          []string{"count", "sum_cost"},
		SortMetric:       "count",
		DefaultLimit:     10,
		Description:      "busiest service locations",
	},
}

// FindMatches scores the catalog against a normalized question and returns
// matches above minConfidence, best first.
func FindMatches(qn string, minConfidence float64) []ScoredQuestion {
	var out []ScoredQuestion
	for i := range canonicalCatalog {
		cq := &canonicalCatalog[i]
		if ok, conf := cq.Matches(qn); ok && conf >= minConfidence {
			out = append(out, ScoredQuestion{Question: cq, Confidence: conf})
		}
	}
	// insertion sort keeps encounter order for equal confidence
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Confidence > out[j-1].Confidence; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ScoredQuestion pairs a catalog entry with its match confidence.
type ScoredQuestion struct {
	Question   *CanonicalQuestion
	Confidence float64
}

// DetectIntent scores every intent's trigger list over the normalized
// question, walking intentOrder so ties resolve the same way on every call.
// No signal at all falls back to maintenance history with low confidence.
func DetectIntent(qn string) (models.QuestionType, float64) {
	best := models.QuestionMaintenanceHistory
	bestScore := 0.0
	for _, intent := range intentOrder {
		triggers := intentTriggers[intent]
		matched := 0
		for _, t := range triggers {
			if strings.Contains(qn, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		denom := len(triggers)
		if denom > 3 {
			denom = 3
		}
		score := float64(matched) / float64(denom)
		if score > bestScore {
			best, bestScore = intent, score
		}
	}
	if bestScore == 0 {
		return models.QuestionMaintenanceHistory, 0.3
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return best, bestScore
}

// DetectShape scores every shape's trigger list; with no signal it falls
// back to the intent's default shape at fixed confidence.
func DetectShape(qn string, intent models.QuestionType) (models.OutputShape, float64) {
	var best models.OutputShape
	bestScore := 0.0
	for _, shape := range shapeOrder {
		triggers := shapeTriggers[shape]
		matched := 0
		for _, t := range triggers {
			if strings.Contains(qn, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		denom := len(triggers)
		if denom > 3 {
			denom = 3
		}
		score := float64(matched) / float64(denom)
		if score > bestScore {
			best, bestScore = shape, score
		}
	}
	if bestScore == 0 {
		if def, ok := defaultShapeForIntent[intent]; ok {
			return def, 0.5
		}
		return models.ShapeTopList, 0.5
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return best, bestScore
}

// DetectDimension finds the most likely group-by dimension named in the
// question, or "" when none scores.
func DetectDimension(qn string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, dim := range dimensionOrder {
		triggers := dimensionTriggers[dim]
		matched := 0
		for _, t := range triggers {
			if strings.Contains(qn, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		denom := len(triggers)
		if denom > 2 {
			denom = 2
		}
		score := float64(matched) / float64(denom)
		if score > bestScore {
			best, bestScore = dim, score
		}
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return best, bestScore
}
