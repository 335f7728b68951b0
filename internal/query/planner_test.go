package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
)

func buildFor(t *testing.T, question string) (*models.IntentAnalysisResult, *models.QueryPlan) {
	t.Helper()
	c := nlp.NewClassifier(logger.NewNoOpLogger())
	p := NewPlanner(logger.NewTestLogger(t))

	res := c.Classify(question)
	plan := p.Build(res, c.MatchedCanonical(res))
	require.NotNil(t, plan)
	return res, plan
}

func TestBuildTopMaterialsInWinterSeason(t *testing.T) {
	res, plan := buildFor(t, "2022 yılında kışın en çok kullanılan 5 malzeme")

	assert.Equal(t, models.QuestionMaterialUsage, res.QuestionType)
	assert.Equal(t, models.ShapeTopList, res.OutputShape)

	assert.Equal(t, []string{"materialName"}, plan.GroupBy)
	assert.Equal(t, 5, plan.Limit)
	assert.Equal(t, models.SeasonWinter, plan.Filters["season_eq"])

	require.NotNil(t, plan.Period)
	assert.Equal(t, models.PeriodSeason, plan.Period.Kind)
	assert.Equal(t, 2022, plan.Period.Year)
	assert.Equal(t, models.SeasonWinter, plan.Period.Season)

	assert.Contains(t, plan.Metrics, "count")
	// the generic "en çok kullanılan" phrasing must not become a name filter
	assert.NotContains(t, plan.Filters, "materialName_contains")
}

func TestBuildNextMaintenancePlan(t *testing.T) {
	res, plan := buildFor(t, "lastik değiştirildiğinde bir sonraki bakımda hangi malzemeler kullanılıyor")

	assert.Equal(t, models.QuestionNextMaintenance, res.QuestionType)
	assert.Equal(t, []string{"materialName"}, plan.GroupBy)
	assert.Equal(t, []string{"count", "probability"}, plan.Metrics)
	assert.Equal(t, "lastik", plan.Filters["triggerMaterial_contains"])
}

func TestBuildVehicleHistoryPlan(t *testing.T) {
	res, plan := buildFor(t, "70886 numaralı aracın bakım geçmişi")

	assert.Equal(t, models.QuestionMaintenanceHistory, res.QuestionType)
	assert.Equal(t, models.ShapeDetailList, res.OutputShape)
	assert.Equal(t, "70886", plan.Filters["vehicleId_eq"])
}

func TestBuildVehicleTypeFilter(t *testing.T) {
	_, plan := buildFor(t, "otobüslerde en çok kullanılan malzemeler")

	assert.Equal(t, "bus", plan.Filters["vehicleType_eq"])
	assert.Contains(t, plan.GroupBy, "materialName")
}

func TestBuildFaultPlanAlwaysFiltersFaults(t *testing.T) {
	res, plan := buildFor(t, "en sık görülen arıza kodları")

	assert.Equal(t, models.QuestionFaultAnalysis, res.QuestionType)
	assert.Equal(t, true, plan.Filters["hasFault"])
}

func TestBuildBareMonthFilter(t *testing.T) {
	_, plan := buildFor(t, "ocak ayında en çok kullanılan malzemeler")

	// a bare month with no year filters by month-of-date
	assert.Equal(t, 1, plan.Filters["month_eq"])
	require.NotNil(t, plan.Period)
	assert.Equal(t, models.PeriodMonth, plan.Period.Kind)
	assert.Equal(t, 1, plan.Period.Month)
}

func TestBuildSummaryShape(t *testing.T) {
	res, plan := buildFor(t, "toplam bakım maliyeti ne kadar")

	assert.Equal(t, models.QuestionCostAnalysis, res.QuestionType)
	if res.OutputShape == models.ShapeSummary {
		// the global pseudo-dimension carries through the plan; the engine
		// drops it before grouping
		assert.Equal(t, []string{"total"}, plan.GroupBy)
	}
	assert.Contains(t, plan.Metrics, "sum_cost")
}

func TestBuildHonorsCanonicalSortOrder(t *testing.T) {
	p := NewPlanner(logger.NewTestLogger(t))
	res := &models.IntentAnalysisResult{
		QuestionType: models.QuestionMaintenanceHistory,
		OutputShape:  models.ShapeDetailList,
	}
	cq := &nlp.CanonicalQuestion{
		QuestionType:     models.QuestionMaintenanceHistory,
		OutputShape:      models.ShapeDetailList,
		PrimaryDimension: "operationDate",
		SortMetric:       "operationDate",
		SortOrder:        "desc",
		DefaultLimit:     50,
	}

	plan := p.Build(res, cq)
	assert.Equal(t, "operationDate", plan.Sort)
	assert.Equal(t, "desc", plan.SortDir)
	assert.Equal(t, 50, plan.Limit)
}

func TestBuildCanonicalPeriodBeatsExtractedYears(t *testing.T) {
	p := NewPlanner(logger.NewTestLogger(t))
	res := &models.IntentAnalysisResult{
		QuestionType: models.QuestionCostAnalysis,
		OutputShape:  models.ShapeTrend,
		Entities:     models.ExtractedEntities{Years: []int{2022}},
	}
	cq := &nlp.CanonicalQuestion{
		QuestionType:     models.QuestionCostAnalysis,
		OutputShape:      models.ShapeTrend,
		PrimaryDimension: "materialName",
		Period:           &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3},
	}

	plan := p.Build(res, cq)
	require.NotNil(t, plan.Period)
	assert.Equal(t, models.PeriodRelative, plan.Period.Kind)
	assert.Equal(t, "year", plan.Period.Unit)
	assert.Equal(t, 3, plan.Period.Value)

	// without a fixed canonical period the extracted year drives the window
	plan = p.Build(res, nil)
	require.NotNil(t, plan.Period)
	assert.Equal(t, models.PeriodYear, plan.Period.Kind)
	assert.Equal(t, 2022, plan.Period.Year)
}

func TestBuildLimitDefaults(t *testing.T) {
	_, plan := buildFor(t, "en çok kullanılan malzemeler")
	assert.Equal(t, 10, plan.Limit)
}
