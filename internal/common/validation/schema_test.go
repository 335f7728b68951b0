package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlanOverrideValid(t *testing.T) {
	violations, err := ValidatePlanOverride(map[string]interface{}{
		"groupBy": []interface{}{"materialName"},
		"metrics": []interface{}{"count", "sum_cost"},
		"filters": map[string]interface{}{"vehicleType_eq": "bus"},
		"limit":   5,
		"sort":    "count",
	})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidatePlanOverrideEmpty(t *testing.T) {
	violations, err := ValidatePlanOverride(map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidatePlanOverrideUnknownKey(t *testing.T) {
	violations, err := ValidatePlanOverride(map[string]interface{}{
		"explode": true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}

func TestValidatePlanOverrideLimitBounds(t *testing.T) {
	violations, err := ValidatePlanOverride(map[string]interface{}{"limit": 0})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)

	violations, err = ValidatePlanOverride(map[string]interface{}{"limit": 501})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}

func TestValidatePlanOverrideWrongTypes(t *testing.T) {
	violations, err := ValidatePlanOverride(map[string]interface{}{
		"groupBy": "materialName",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)

	violations, err = ValidatePlanOverride(map[string]interface{}{
		"metrics": []interface{}{1, 2},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}
