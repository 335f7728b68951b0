// Package analytics is the facade over the pipeline: classify the question,
// build the plan, pick the executor (aggregation engine or pattern scan) and
// shape the answer.
package analytics

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"fleet-insights/internal/common/errors"
	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/common/metrics"
	"fleet-insights/internal/common/validation"
	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
	"fleet-insights/internal/patterns"
	"fleet-insights/internal/query"
	"fleet-insights/internal/store"
)

// lowConfidenceThreshold routes hopeless classifications to the general
// statistics fallback instead of a misleading specific answer. The no-signal
// classification floor sits exactly at this value, so the check is inclusive.
const lowConfidenceThreshold = 0.3

// Answer is the full response for one question.
type Answer struct {
	TraceID      string                      `json:"traceId"`
	Question     string                      `json:"question"`
	Analysis     *models.IntentAnalysisResult `json:"analysis"`
	Rows         []models.Row                `json:"rows"`
	Meta         map[string]interface{}      `json:"meta,omitempty"`
	Examples     []string                    `json:"examples,omitempty"`
	Alternatives []models.CanonicalMatch     `json:"alternatives,omitempty"`
}

// Service wires the classifier, planner, engine and pattern analyzer.
type Service struct {
	classifier *nlp.Classifier
	planner    *query.Planner
	engine     *query.Engine
	analyzer   *patterns.Analyzer
	store      store.Store
	anchor     *store.AnchorCache
	logger     logger.Logger
}

// NewService builds the facade.
func NewService(s store.Store, anchor *store.AnchorCache, log logger.Logger) *Service {
	return &Service{
		classifier: nlp.NewClassifier(log),
		planner:    query.NewPlanner(log),
		engine:     query.NewEngine(s, anchor, log),
		analyzer:   patterns.NewAnalyzer(s, anchor, log),
		store:      s,
		anchor:     anchor,
		logger:     log,
	}
}

// Analyze classifies a question and resolves its plan without executing it.
func (s *Service) Analyze(question string) *models.IntentAnalysisResult {
	res := s.classifier.Classify(question)
	cq := s.classifier.MatchedCanonical(res)
	res.Plan = s.planner.Build(res, cq)
	metrics.QuestionsAnalyzed.WithLabelValues(
		string(res.QuestionType), string(res.OutputShape)).Inc()
	return res
}

// Ask runs the whole pipeline for one question.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	return s.AskWithOverride(ctx, question, nil)
}

// AskWithOverride additionally applies a caller-supplied plan override,
// validated against the override schema before anything touches the plan.
func (s *Service) AskWithOverride(ctx context.Context, question string, override map[string]interface{}) (*Answer, error) {
	traceID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{"traceId": traceID})

	res := s.Analyze(question)
	if override != nil {
		if err := s.applyOverride(res.Plan, override); err != nil {
			metrics.QuestionsFailed.WithLabelValues(string(errors.ErrInvalidPlan)).Inc()
			return nil, err
		}
	}

	ans := &Answer{
		TraceID:      traceID,
		Question:     question,
		Analysis:     res,
		Alternatives: res.Alternatives,
	}

	if res.IntentConf <= lowConfidenceThreshold {
		log.Info("low confidence, answering with general statistics", map[string]interface{}{
			"intentConf": res.IntentConf,
		})
		return s.generalStatistics(ctx, ans)
	}

	rows, meta, err := s.dispatch(ctx, res)
	if err != nil {
		if stdErr, ok := err.(*errors.StandardError); ok {
			metrics.QuestionsFailed.WithLabelValues(string(stdErr.Code)).Inc()
		}
		return nil, err
	}
	ans.Rows = rows
	ans.Meta = meta

	log.Info("question answered", map[string]interface{}{
		"questionType": string(res.QuestionType),
		"outputShape":  string(res.OutputShape),
		"rows":         len(rows),
	})
	return ans, nil
}

func (s *Service) applyOverride(plan *models.QueryPlan, override map[string]interface{}) error {
	violations, err := validation.ValidatePlanOverride(override)
	if err != nil {
		return errors.New(errors.ErrInvalidPlan, "plan override validation failed", err)
	}
	if len(violations) > 0 {
		return errors.NewInvalidPlanError(strings.Join(violations, "; "))
	}

	if raw, ok := override["groupBy"].([]interface{}); ok {
		plan.GroupBy = plan.GroupBy[:0]
		for _, v := range raw {
			if s, ok := v.(string); ok {
				plan.GroupBy = append(plan.GroupBy, s)
			}
		}
	}
	if raw, ok := override["metrics"].([]interface{}); ok {
		plan.Metrics = plan.Metrics[:0]
		for _, v := range raw {
			if s, ok := v.(string); ok {
				plan.Metrics = append(plan.Metrics, s)
			}
		}
	}
	if raw, ok := override["filters"].(map[string]interface{}); ok {
		for k, v := range raw {
			plan.Filters[k] = v
		}
	}
	if raw, ok := override["limit"]; ok {
		switch v := raw.(type) {
		case float64:
			plan.Limit = int(v)
		case int:
			plan.Limit = v
		}
	}
	if v, ok := override["sort"].(string); ok {
		plan.Sort = v
	}
	if v, ok := override["sortDir"].(string); ok {
		plan.SortDir = v
	}
	return nil
}

// dispatch routes the classified question to the executor that can answer
// it: pattern scans for sequence/trend/pivot shapes, the aggregation engine
// for everything else.
func (s *Service) dispatch(ctx context.Context, res *models.IntentAnalysisResult) ([]models.Row, map[string]interface{}, error) {
	ents := &res.Entities

	switch {
	case res.QuestionType == models.QuestionNextMaintenance:
		model := ""
		if len(ents.VehicleModels) > 0 {
			model = ents.VehicleModels[0]
		}
		result, err := s.analyzer.NextMaintenanceMaterials(ctx, ents.ConditionMaterial, model, res.Plan.Limit)
		if err != nil {
			return nil, nil, err
		}
		meta := map[string]interface{}{"matchedPairs": result.MatchedPairs}
		if result.Note != "" {
			meta["note"] = result.Note
		}
		return toRows(result.Rows), meta, nil

	case res.QuestionType == models.QuestionMaintenanceHistory &&
		res.OutputShape == models.ShapeDetailList && len(ents.VehicleIDs) == 1:
		rows, err := s.analyzer.VehicleHistory(ctx, ents.VehicleIDs[0], res.Plan.Limit)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), map[string]interface{}{"vehicleId": ents.VehicleIDs[0]}, nil

	case res.QuestionType == models.QuestionCostAnalysis && res.OutputShape == models.ShapeTrend:
		return s.dispatchPriceTrend(ctx, res)

	case res.QuestionType == models.QuestionMaterialUsage && res.OutputShape == models.ShapePivot:
		bySeason := !strings.Contains(res.Normalized, "aylara")
		rows, err := s.analyzer.MaterialPivot(ctx, bySeason, res.Plan.Limit)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), nil, nil

	case res.OutputShape == models.ShapeTopPerGroup:
		return s.dispatchTopPerGroup(ctx, res)

	case res.OutputShape == models.ShapeTopList && isEntityDimension(primaryOf(res.Plan)) &&
		topEntityFiltersOnly(res.Plan.Filters):
		return s.dispatchTopEntities(ctx, res)
	}

	rows, err := s.engine.Execute(ctx, res.Plan)
	if err != nil {
		return nil, nil, err
	}
	return rows, nil, nil
}

func (s *Service) dispatchPriceTrend(ctx context.Context, res *models.IntentAnalysisResult) ([]models.Row, map[string]interface{}, error) {
	period := res.Plan.Period
	qn := res.Normalized
	byFamily := strings.Contains(qn, "aile") || strings.Contains(qn, "kategori") ||
		strings.Contains(qn, "malzeme grubu")
	bySeason := strings.Contains(qn, "mevsim") || strings.Contains(qn, "sezon")

	switch {
	case byFamily && bySeason:
		rows, err := s.analyzer.FamilyPriceTrendBySeason(ctx, period, 0)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), nil, nil
	case byFamily:
		rows, err := s.analyzer.FamilyPriceTrend(ctx, period, res.Plan.Limit)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), nil, nil
	case bySeason:
		rows, err := s.analyzer.SeasonalPriceTrend(ctx, period, res.Plan.Limit)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), nil, nil
	}
	rows, err := s.analyzer.PriceTrend(ctx, period, res.Plan.Limit)
	if err != nil {
		return nil, nil, err
	}
	return toRows(rows), nil, nil
}

func (s *Service) dispatchTopPerGroup(ctx context.Context, res *models.IntentAnalysisResult) ([]models.Row, map[string]interface{}, error) {
	group := ""
	if len(res.Plan.GroupBy) > 0 {
		group = res.Plan.GroupBy[0]
	}
	limitPerGroup := res.Plan.Limit

	if group == "season" {
		rows, err := s.analyzer.TopMaterialsPerYearSeason(ctx, limitPerGroup, 0)
		if err != nil {
			return nil, nil, err
		}
		return toRows(rows), nil, nil
	}

	groupOf := func(ev *models.Event) string {
		switch group {
		case "vehicleModel":
			return ev.VehicleModel
		case "vehicleType":
			return ev.VehicleType
		case "customer":
			return ev.CustomerID
		case "serviceLocation":
			return ev.ServiceLocation
		case "vehicle":
			return ev.VehicleID
		}
		return ev.VehicleType
	}
	rows, err := s.analyzer.TopMaterialsPerDimension(ctx, groupOf, limitPerGroup, 0)
	if err != nil {
		return nil, nil, err
	}
	return toRows(rows), nil, nil
}

func (s *Service) dispatchTopEntities(ctx context.Context, res *models.IntentAnalysisResult) ([]models.Row, map[string]interface{}, error) {
	ents := &res.Entities
	req := patterns.TopEntityRequest{
		EntityType: entityTypeOf(primaryOf(res.Plan)),
		Period:     res.Plan.Period,
		Limit:      res.Plan.Limit,
	}
	if v, ok := res.Plan.Filters["materialName_contains"].(string); ok {
		req.MaterialFilter = v
	}
	if v, ok := res.Plan.Filters["hasFault"].(bool); ok {
		req.FaultsOnly = v
	}
	if len(ents.VehicleModels) > 0 {
		req.ModelFilter = ents.VehicleModels[0]
	}
	if len(ents.VehicleIDs) == 1 {
		req.VehicleFilter = ents.VehicleIDs[0]
	}

	result, err := s.analyzer.TopEntities(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	meta := map[string]interface{}{"totalEvents": result.TotalEvents}
	if result.PeriodText != "" {
		meta["periodText"] = result.PeriodText
	}
	if result.AnchorDate != "" {
		meta["anchorDate"] = result.AnchorDate
	}
	return toRows(result.Rows), meta, nil
}

// generalStatistics is the low-confidence fallback: corpus size, anchor date
// and the overall top materials.
func (s *Service) generalStatistics(ctx context.Context, ans *Answer) (*Answer, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.TopEntities(ctx, patterns.TopEntityRequest{
		EntityType: "material",
		Limit:      5,
	})
	if err != nil {
		return nil, err
	}
	ans.Rows = toRows(result.Rows)
	ans.Meta = map[string]interface{}{
		"fallback":    "general_statistics",
		"totalEvents": total,
	}
	if result.AnchorDate != "" {
		ans.Meta["anchorDate"] = result.AnchorDate
	}
	return ans, nil
}

func primaryOf(plan *models.QueryPlan) string {
	if plan == nil || len(plan.GroupBy) == 0 {
		return ""
	}
	return plan.GroupBy[0]
}

// topEntityFiltersOnly reports whether every plan filter is expressible by
// the top-entity scan; anything else goes through the aggregation engine.
// hasFault qualifies only as faults-only — excluding faulty events is an
// engine predicate.
func topEntityFiltersOnly(filters map[string]interface{}) bool {
	for k, v := range filters {
		switch k {
		case "materialName_contains", "vehicleModel_eq", "vehicleId_eq":
		case "hasFault":
			if b, ok := v.(bool); !ok || !b {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isEntityDimension(dim string) bool {
	switch dim {
	case "materialName", "vehicle", "vehicleType", "vehicleModel",
		"customer", "serviceLocation", "faultCode":
		return true
	}
	return false
}

func entityTypeOf(dim string) string {
	if dim == "materialName" {
		return "material"
	}
	return dim
}

// toRows flattens typed result rows through their json tags so every
// executor speaks the same row shape.
func toRows(v interface{}) []models.Row {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var rows []models.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}
	return rows
}
