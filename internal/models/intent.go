package models

// QuestionType is the topical category of a question.
type QuestionType string

const (
	QuestionMaterialUsage      QuestionType = "material_usage"
	QuestionCostAnalysis       QuestionType = "cost_analysis"
	QuestionFaultAnalysis      QuestionType = "fault_analysis"
	QuestionMaintenanceHistory QuestionType = "maintenance_history"
	QuestionVehicleAnalysis    QuestionType = "vehicle_analysis"
	QuestionCustomerAnalysis   QuestionType = "customer_analysis"
	QuestionServiceAnalysis    QuestionType = "service_analysis"
	QuestionPatternAnalysis    QuestionType = "pattern_analysis"
	QuestionNextMaintenance    QuestionType = "next_maintenance"
	QuestionComparison         QuestionType = "comparison_analysis"
)

// OutputShape is the presentation category of an answer.
type OutputShape string

const (
	ShapeTopList      OutputShape = "top_list"
	ShapeDetailList   OutputShape = "detail_list"
	ShapeTimeSeries   OutputShape = "time_series"
	ShapeSeasonal     OutputShape = "seasonal"
	ShapeDistribution OutputShape = "distribution"
	ShapePivot        OutputShape = "pivot"
	ShapeTopPerGroup  OutputShape = "top_per_group"
	ShapeComparison   OutputShape = "comparison"
	ShapeSequence     OutputShape = "sequence"
	ShapeTrend        OutputShape = "trend"
	ShapeSummary      OutputShape = "summary"
)

// ExtractedEntities holds everything the entity extractor pulled out of a
// normalized question. Every field is optional; absence is the zero value.
type ExtractedEntities struct {
	Years              []int    `json:"years,omitempty"`
	Months             []int    `json:"months,omitempty"`
	Seasons            []string `json:"seasons,omitempty"`
	RelativeUnit       string   `json:"relativeUnit,omitempty"`
	RelativeValue      int      `json:"relativeValue,omitempty"`
	VehicleTypes       []string `json:"vehicleTypes,omitempty"`
	VehicleModels      []string `json:"vehicleModels,omitempty"`
	VehicleIDs         []string `json:"vehicleIds,omitempty"`
	Manufacturers      []string `json:"manufacturers,omitempty"`
	CustomerIDs        []string `json:"customerIds,omitempty"`
	ServiceLocations   []string `json:"serviceLocations,omitempty"`
	MaterialKeywords   []string `json:"materialKeywords,omitempty"`
	FaultCodes         []string `json:"faultCodes,omitempty"`
	ComparisonEntities []string `json:"comparisonEntities,omitempty"`
	ConditionMaterial  string   `json:"conditionMaterial,omitempty"`
	HasTopSignal       bool     `json:"hasTopSignal,omitempty"`
	TopLimit           int      `json:"topLimit,omitempty"`
}

// HasTimeEntities reports whether any explicit temporal entity was found.
func (e *ExtractedEntities) HasTimeEntities() bool {
	return len(e.Years) > 0 || len(e.Months) > 0 || len(e.Seasons) > 0 ||
		(e.RelativeUnit != "" && e.RelativeValue > 0)
}

// CanonicalMatch describes one canonical question that (partially) matched
// the input, used for the fast path and for alternative suggestions.
type CanonicalMatch struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// IntentAnalysisResult is the transient outcome of classifying one question.
type IntentAnalysisResult struct {
	Question        string            `json:"question"`
	Normalized      string            `json:"normalized"`
	QuestionType    QuestionType      `json:"questionType"`
	OutputShape     OutputShape       `json:"outputShape"`
	IntentConf      float64           `json:"intentConfidence"`
	ShapeConf       float64           `json:"shapeConfidence"`
	Entities        ExtractedEntities `json:"entities"`
	Plan            *QueryPlan        `json:"plan,omitempty"`
	MatchedQuestion *CanonicalMatch   `json:"matchedQuestion,omitempty"`
	Alternatives    []CanonicalMatch  `json:"alternatives,omitempty"`
}
