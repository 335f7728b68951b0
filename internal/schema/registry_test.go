package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupDimension(t *testing.T) {
	d, ok := LookupDimension("materialName")
	require.True(t, ok)
	assert.Equal(t, CategoryEntity, d.Category)
	assert.NotEmpty(t, d.Candidates)

	d, ok = LookupDimension("season")
	require.True(t, ok)
	assert.True(t, d.Derived)
	assert.Equal(t, CategoryTime, d.Category)

	_, ok = LookupDimension("color")
	assert.False(t, ok)
}

func TestValidDimensionsKeepsOrder(t *testing.T) {
	got := ValidDimensions([]string{"year", "bogus", "materialName"})
	assert.Equal(t, []string{"year", "materialName"}, got)

	assert.Nil(t, ValidDimensions([]string{"bogus"}))
}

func TestValidMetricsGuaranteesCount(t *testing.T) {
	got := ValidMetrics([]string{"sum_cost", "bogus"})
	assert.Equal(t, []string{"sum_cost", "count"}, got)

	got = ValidMetrics([]string{"count", "avg_cost"})
	assert.Equal(t, []string{"count", "avg_cost"}, got)

	assert.Equal(t, []string{"count"}, ValidMetrics(nil))
}

func TestLookupMetricKinds(t *testing.T) {
	m, ok := LookupMetric("sum_quantity")
	require.True(t, ok)
	assert.Equal(t, MetricSum, m.Kind)
	assert.Equal(t, "quantity", m.Source)

	m, ok = LookupMetric("count")
	require.True(t, ok)
	assert.Equal(t, MetricCount, m.Kind)
	assert.Empty(t, m.Source)
}
