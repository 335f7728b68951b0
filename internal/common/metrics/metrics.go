// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_questions_analyzed_total",
			Help: "Total number of questions classified",
		},
		[]string{"question_type", "output_shape"},
	)

	QuestionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_questions_failed_total",
			Help: "Total number of questions that could not be answered",
		},
		[]string{"error_code"},
	)

	PlanExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "insights_plan_execution_duration_seconds",
			Help: "Duration of query plan execution in seconds",
		},
		[]string{"primary_dimension"},
	)

	PatternScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "insights_pattern_scan_duration_seconds",
			Help: "Duration of pattern analytics scans in seconds",
		},
		[]string{"scan"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_store_errors_total",
			Help: "Total number of event store errors",
		},
		[]string{"operation"},
	)
)
