// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// planOverrideSchema constrains externally supplied plan overrides: callers
// of the analyze API may pin group-by axes, filters or the limit, but only
// in the documented shape.
var planOverrideSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"groupBy": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"metrics": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"filters": map[string]interface{}{
			"type": "object",
		},
		"limit": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
			"maximum": 500,
		},
		"sort": map[string]interface{}{"type": "string"},
		"sortDir": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"asc", "desc"},
		},
	},
}

// ValidatePlanOverride checks an override document against the schema and
// returns the collected violation messages.
func ValidatePlanOverride(override map[string]interface{}) ([]string, error) {
	schemaLoader := gojsonschema.NewGoLoader(planOverrideSchema)
	documentLoader := gojsonschema.NewGoLoader(override)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("plan override validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	var violations []string
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
