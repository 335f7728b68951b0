package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-insights/internal/models"
)

func rawStatement() map[string]interface{} {
	return map[string]interface{}{
		"id": "evt-1",
		"actor": map[string]interface{}{
			"account": map[string]interface{}{"name": "vehicle/70886"},
		},
		"verb": map[string]interface{}{
			"id": "http://example.com/verbs/maintained",
		},
		"object": map[string]interface{}{
			"id": "http://example.com/activities/material/81.12501-6101",
			"definition": map[string]interface{}{
				"name": map[string]interface{}{"tr-TR": "Motor Yağı", "en-US": "Engine Oil"},
			},
		},
		"context": map[string]interface{}{
			"contextActivities": map[string]interface{}{
				"grouping": []interface{}{
					map[string]interface{}{"id": "http://example.com/activities/service-location/R117"},
				},
			},
			"extensions": map[string]interface{}{
				"http://example.com/extensions/operationDate": "2022-01-15T10:30:00Z",
				"http://example.com/extensions/vehicleType":   "bus",
				"http://example.com/extensions/cost":          42.5,
				"http://example.com/extensions/quantity":      2.0,
			},
		},
	}
}

func TestDecodeDocumentTopLevel(t *testing.T) {
	ev := DecodeDocument(rawStatement())

	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, "70886", ev.VehicleID)
	assert.Equal(t, models.VerbMaintain, ev.Verb)
	assert.Equal(t, "81.12501-6101", ev.MaterialCode)
	assert.Equal(t, "Motor Yağı", ev.MaterialName, "tr-TR name wins over en-US")
	assert.Equal(t, "R117", ev.ServiceLocation)
	assert.Equal(t, "bus", ev.VehicleType)
	require.NotNil(t, ev.Cost)
	assert.Equal(t, 42.5, *ev.Cost)
	require.True(t, ev.HasOperationDate())
	assert.Equal(t, time.Date(2022, 1, 15, 10, 30, 0, 0, time.UTC), *ev.OperationDate)
}

func TestDecodeDocumentStatementWrapped(t *testing.T) {
	wrapped := map[string]interface{}{"statement": rawStatement()}
	ev := DecodeDocument(wrapped)

	// both legacy roots decode to the same event
	assert.Equal(t, DecodeDocument(rawStatement()), ev)
}

func TestDecodeDocumentExtensionTolerance(t *testing.T) {
	doc := map[string]interface{}{
		"context": map[string]interface{}{
			"extensions": map[string]interface{}{
				// the old exporter wrote vehicletype in lowercase
				"http://example.com/extensions/vehicletype": "truck",
				// and decimal commas
				"http://example.com/extensions/cost": "1234,56",
				"http://example.com/extensions/km":   "250000",
				// recordDate is the fallback business date
				"http://example.com/extensions/recordDate": "2021-06-01",
			},
		},
	}
	ev := DecodeDocument(doc)

	assert.Equal(t, "truck", ev.VehicleType)
	require.NotNil(t, ev.Cost)
	assert.Equal(t, 1234.56, *ev.Cost)
	require.NotNil(t, ev.Odometer)
	assert.Equal(t, 250000.0, *ev.Odometer)
	require.True(t, ev.HasOperationDate())
	assert.Equal(t, 2021, ev.OperationDate.Year())
}

func TestDecodeDocumentOperationDateWins(t *testing.T) {
	doc := map[string]interface{}{
		"context": map[string]interface{}{
			"extensions": map[string]interface{}{
				"http://example.com/extensions/recordDate":    "2020-01-01",
				"http://example.com/extensions/operationDate": "2022-05-05",
			},
		},
	}
	ev := DecodeDocument(doc)
	require.True(t, ev.HasOperationDate())
	assert.Equal(t, 2022, ev.OperationDate.Year())
}

func TestDecodeDocumentVerbs(t *testing.T) {
	tests := []struct {
		verbID   string
		expected models.VerbType
	}{
		{"http://example.com/verbs/maintained", models.VerbMaintain},
		{"http://example.com/verbs/repaired", models.VerbRepair},
		{"http://example.com/verbs/inspected", models.VerbInspect},
		{"http://example.com/verbs/observed", models.VerbOther},
	}
	for _, tt := range tests {
		doc := map[string]interface{}{
			"verb": map[string]interface{}{"id": tt.verbID},
		}
		assert.Equal(t, tt.expected, DecodeDocument(doc).Verb, tt.verbID)
	}
}

func TestDecodeDocumentEmpty(t *testing.T) {
	ev := DecodeDocument(map[string]interface{}{})
	assert.Empty(t, ev.ID)
	assert.False(t, ev.HasOperationDate())
	assert.Nil(t, ev.Cost)
}

func TestQueryMatches(t *testing.T) {
	d := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	ev := models.Event{VehicleID: "70886", Verb: models.VerbMaintain, OperationDate: &d}

	assert.True(t, Query{}.Matches(&ev))
	assert.True(t, Query{VehicleID: "70886"}.Matches(&ev))
	assert.False(t, Query{VehicleID: "99999"}.Matches(&ev))
	assert.True(t, Query{Verbs: []models.VerbType{models.VerbMaintain, models.VerbRepair}}.Matches(&ev))
	assert.False(t, Query{Verbs: []models.VerbType{models.VerbInspect}}.Matches(&ev))

	r := models.TimeRange{
		Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, Query{TimeRange: &r}.Matches(&ev))

	before := models.TimeRange{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.False(t, Query{TimeRange: &before}.Matches(&ev))
}
