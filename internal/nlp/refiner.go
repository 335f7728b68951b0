package nlp

import (
	"strings"

	"fleet-insights/internal/models"
)

// Refinement is the intent/shape pair after the heuristic pass, with
// adjusted confidences.
type Refinement struct {
	QuestionType models.QuestionType
	OutputShape  models.OutputShape
	IntentConf   float64
	ShapeConf    float64
}

func clampConf(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

var priceIncreaseSignals = []string{
	"fiyat artisi", "fiyati artan", "fiyatlari artan", "zamlanan",
	"pahalilasan", "maliyet artisi", "maliyeti artan",
}

var seasonalGroupSignals = []string{
	"mevsimlere gore", "mevsime gore", "her mevsim",
	"mevsimlerde", "mevsimde", "sezonlara gore",
}

var modelGroupSignals = []string{
	"her model", "modellere gore en", "modellerine gore en",
	"model bazinda en", "modellerde en",
}

var typeGroupSignals = []string{
	"her tip", "tiplere gore en", "tiplerine gore en",
	"tip bazinda en", "her arac tipi",
}

// Refine applies ordered heuristics on top of the trigger-scored intent and
// shape. Rules are first-match-wins; an unmatched question passes through
// unchanged except for a final compatibility correction.
func Refine(qn string, ents *models.ExtractedEntities, intent models.QuestionType, shape models.OutputShape, intentConf, shapeConf float64) Refinement {
	hasMaterialSignal := ContainsAny(qn, materialUsageSignals) || strings.Contains(qn, "malzeme")
	hasTop := ents.HasTopSignal || ContainsAny(qn, topSignals)
	hasTime := ents.HasTimeEntities() || ContainsAny(qn, timeSeriesKeywords)

	switch {
	// follow-up questions ("what gets replaced at the next visit") are the
	// strongest signal there is
	case ContainsAny(qn, nextMaintenanceKeywords):
		return Refinement{models.QuestionNextMaintenance, models.ShapeSequence, 1.0, 1.0}

	case ContainsAny(qn, priceIncreaseSignals):
		sh := models.ShapeTopList
		if ContainsAny(qn, seasonalGroupSignals) {
			sh = models.ShapeTopPerGroup
		}
		return Refinement{models.QuestionCostAnalysis, sh, clampConf(intentConf + 0.4), 0.9}

	case hasTime && hasTop && hasMaterialSignal && ContainsAny(qn, timeSeriesKeywords) &&
		len(ents.Seasons) == 0 && !ContainsAny(qn, seasonalGroupSignals):
		return Refinement{
			models.QuestionMaterialUsage, models.ShapeTimeSeries,
			clampConf(intentConf + 0.3), clampConf(shapeConf + 0.3),
		}

	case len(ents.VehicleIDs) > 0 && hasMaterialSignal:
		return Refinement{models.QuestionMaterialUsage, shape, clampConf(intentConf + 0.4), shapeConf}

	case len(ents.VehicleIDs) > 0 && ContainsAny(qn, historyKeywords):
		return Refinement{
			models.QuestionMaintenanceHistory, models.ShapeDetailList,
			clampConf(intentConf + 0.4), 0.9,
		}

	case hasTop && hasMaterialSignal &&
		(ContainsAny(qn, seasonalGroupSignals) || ContainsAny(qn, modelGroupSignals) || ContainsAny(qn, typeGroupSignals)):
		return Refinement{
			models.QuestionMaterialUsage, models.ShapeTopPerGroup,
			clampConf(intentConf + 0.4), 0.95,
		}

	case len(ents.Seasons) > 0 && hasMaterialSignal && !hasTop:
		return Refinement{
			models.QuestionMaterialUsage, models.ShapeSeasonal,
			clampConf(intentConf + 0.3), 0.9,
		}

	case hasTop && hasMaterialSignal:
		return Refinement{
			models.QuestionMaterialUsage, models.ShapeTopList,
			clampConf(intentConf + 0.3), 0.9,
		}

	case ContainsAny(qn, maintenanceKeywords) && ContainsAny(qn, repairKeywords) &&
		ContainsAny(qn, distributionKeywords):
		sh := models.ShapeDistribution
		switch {
		case ContainsAny(qn, timeSeriesKeywords):
			sh = models.ShapeTimeSeries
		case ContainsAny(qn, seasonalShapeKeywords):
			sh = models.ShapeSeasonal
		case ContainsAny(qn, vehicleTypeKeywords) || ContainsAny(qn, vehicleModelKeywords):
			sh = models.ShapePivot
		}
		return Refinement{models.QuestionMaintenanceHistory, sh, 0.9, 0.9}

	case ContainsAny(qn, faultKeywords):
		sh := shape
		if !IsCompatible(models.QuestionFaultAnalysis, sh) {
			sh = models.ShapeTopList
		}
		return Refinement{models.QuestionFaultAnalysis, sh, clampConf(intentConf + 0.3), shapeConf}

	case ContainsAny(qn, costKeywords) || ContainsAny(qn, costSignals):
		if ContainsAny(qn, trendKeywords) {
			return Refinement{models.QuestionCostAnalysis, models.ShapeTrend, clampConf(intentConf + 0.3), 0.9}
		}
		sh := shape
		if !IsCompatible(models.QuestionCostAnalysis, sh) {
			sh = models.ShapeSummary
		}
		return Refinement{models.QuestionCostAnalysis, sh, clampConf(intentConf + 0.3), shapeConf}

	case len(ents.Seasons) > 0:
		return Refinement{intent, models.ShapeSeasonal, intentConf, 0.8}

	case len(ents.ComparisonEntities) > 0 || ContainsAny(qn, comparisonKeywords):
		return Refinement{
			models.QuestionComparison, models.ShapeComparison,
			clampConf(intentConf + 0.3), 0.9,
		}

	case len(ents.CustomerIDs) > 0:
		sh := shape
		if !IsCompatible(models.QuestionCustomerAnalysis, sh) {
			sh = models.ShapeTopList
		}
		return Refinement{models.QuestionCustomerAnalysis, sh, clampConf(intentConf + 0.3), shapeConf}

	case len(ents.ServiceLocations) > 0:
		sh := shape
		if !IsCompatible(models.QuestionServiceAnalysis, sh) {
			sh = models.ShapeTopList
		}
		return Refinement{models.QuestionServiceAnalysis, sh, clampConf(intentConf + 0.3), shapeConf}
	}

	if !IsCompatible(intent, shape) {
		if def, ok := defaultShapeForIntent[intent]; ok {
			shape = def
		}
	}
	return Refinement{intent, shape, intentConf, shapeConf}
}

// timeBreakdownSignalCount counts independent time-axis signals in the
// question; two or more means the answer needs a two-way time pivot.
func timeBreakdownSignalCount(qn string, ents *models.ExtractedEntities) int {
	n := 0
	if len(ents.Years) > 1 || ContainsAny(qn, []string{"yillara", "yillar boyunca", "yil bazinda"}) {
		n++
	}
	if len(ents.Seasons) > 0 || ContainsAny(qn, seasonalGroupSignals) {
		n++
	}
	if len(ents.Months) > 1 || ContainsAny(qn, []string{"aylara", "ay bazinda", "aylik dagilim"}) {
		n++
	}
	return n
}

// ApplyPivotOverride upgrades a material-usage answer to a pivot when the
// question asks for two time breakdowns at once.
func ApplyPivotOverride(qn string, ents *models.ExtractedEntities, r Refinement) Refinement {
	if r.QuestionType != models.QuestionMaterialUsage {
		return r
	}
	if timeBreakdownSignalCount(qn, ents) >= 2 && IsCompatible(r.QuestionType, models.ShapePivot) {
		r.OutputShape = models.ShapePivot
		if r.ShapeConf < 0.85 {
			r.ShapeConf = 0.85
		}
	}
	return r
}
