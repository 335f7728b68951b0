package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
)

func boolFilters(t *testing.T, q map[string]interface{}) []map[string]interface{} {
	t.Helper()
	b, ok := q["bool"].(map[string]interface{})
	require.True(t, ok, "expected a bool query, got %v", q)
	filters, ok := b["filter"].([]map[string]interface{})
	require.True(t, ok)
	return filters
}

func shouldClauses(t *testing.T, filter map[string]interface{}) []map[string]interface{} {
	t.Helper()
	b, ok := filter["bool"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, b["minimum_should_match"])
	clauses, ok := b["should"].([]map[string]interface{})
	require.True(t, ok)
	return clauses
}

// termPairs flattens term clauses to "field=value" strings.
func termPairs(clauses []map[string]interface{}) []string {
	var out []string
	for _, c := range clauses {
		tm, ok := c["term"].(map[string]interface{})
		if !ok {
			continue
		}
		for field, v := range tm {
			out = append(out, fmt.Sprintf("%s=%v", field, v))
		}
	}
	return out
}

func TestBuildQueryEmpty(t *testing.T) {
	s := NewElasticStore(nil, "events", logger.NewNoOpLogger())
	q := s.buildQuery(Query{})
	assert.Contains(t, q, "match_all")
}

func TestBuildQueryVehiclePushdown(t *testing.T) {
	s := NewElasticStore(nil, "events", logger.NewNoOpLogger())
	q := s.buildQuery(Query{VehicleID: "70886"})

	filters := boolFilters(t, q)
	require.Len(t, filters, 1)
	got := termPairs(shouldClauses(t, filters[0]))

	assert.Contains(t, got, "actor.account.name.keyword=vehicle/70886")
	assert.Contains(t, got, "statement.actor.account.name.keyword=vehicle/70886")
	// documents that only name the vehicle in the context extension must
	// match too, in both the bare and the prefixed spelling
	assert.Contains(t, got, "context.extensions.vehicleId.keyword=70886")
	assert.Contains(t, got, "context.extensions.vehicleId.keyword=vehicle/70886")
	assert.Contains(t, got, "statement.context.extensions.vehicleId.keyword=70886")
	assert.Contains(t, got, "statement.context.extensions.vehicleId.keyword=vehicle/70886")
}

func TestBuildQueryVerbPushdown(t *testing.T) {
	s := NewElasticStore(nil, "events", logger.NewNoOpLogger())
	q := s.buildQuery(Query{Verbs: []models.VerbType{models.VerbMaintain, models.VerbRepair}})

	filters := boolFilters(t, q)
	require.Len(t, filters, 1)
	clauses := shouldClauses(t, filters[0])
	// two verbs, each under both legacy roots
	assert.Len(t, clauses, 4)
}
