package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-insights/internal/models"
)

func TestBuildPeriodPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		entities models.ExtractedEntities
		expected *models.PeriodSpec
	}{
		{
			name:     "relative beats explicit year",
			entities: models.ExtractedEntities{RelativeUnit: "month", RelativeValue: 6, Years: []int{2022}},
			expected: &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "month", Value: 6},
		},
		{
			name:     "year plus month",
			entities: models.ExtractedEntities{Years: []int{2022}, Months: []int{3}},
			expected: &models.PeriodSpec{Kind: models.PeriodMonth, Year: 2022, Month: 3},
		},
		{
			name:     "year plus season",
			entities: models.ExtractedEntities{Years: []int{2022}, Seasons: []string{models.SeasonWinter}},
			expected: &models.PeriodSpec{Kind: models.PeriodSeason, Year: 2022, Season: models.SeasonWinter},
		},
		{
			name:     "multiple years become a range",
			entities: models.ExtractedEntities{Years: []int{2022, 2020}},
			expected: &models.PeriodSpec{Kind: models.PeriodRange, StartDate: "2020-01-01", EndDate: "2023-01-01"},
		},
		{
			name:     "single year",
			entities: models.ExtractedEntities{Years: []int{2021}},
			expected: &models.PeriodSpec{Kind: models.PeriodYear, Year: 2021},
		},
		{
			name:     "bare month",
			entities: models.ExtractedEntities{Months: []int{7}},
			expected: &models.PeriodSpec{Kind: models.PeriodMonth, Month: 7},
		},
		{
			name:     "no time entities",
			entities: models.ExtractedEntities{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildPeriod(&tt.entities))
		})
	}
}

func TestResolveRangeRelative(t *testing.T) {
	anchor := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)

	// relative years cover whole calendar years ending with the anchor's year
	r, ok := ResolveRange(&models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 2}, &anchor)
	require.True(t, ok)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.End)

	// relative months approximate 30 days per month back from the anchor
	r, ok = ResolveRange(&models.PeriodSpec{Kind: models.PeriodRelative, Unit: "month", Value: 2}, &anchor)
	require.True(t, ok)
	assert.Equal(t, anchor.AddDate(0, 0, -60), r.Start)

	// no anchor means no window, never the wall clock
	_, ok = ResolveRange(&models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 2}, nil)
	assert.False(t, ok)
}

func TestResolveRangeConcrete(t *testing.T) {
	r, ok := ResolveRange(&models.PeriodSpec{Kind: models.PeriodYear, Year: 2022}, nil)
	require.True(t, ok)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), r.End)

	// a bare month has no concrete window
	_, ok = ResolveRange(&models.PeriodSpec{Kind: models.PeriodMonth, Month: 7}, nil)
	assert.False(t, ok)

	_, ok = ResolveRange(nil, nil)
	assert.False(t, ok)
}

func eventOn(t time.Time) *models.Event {
	return &models.Event{ID: "e", VehicleID: "70886", OperationDate: &t}
}

func TestMatchesPeriodWinterYearShift(t *testing.T) {
	winter2022 := &models.PeriodSpec{Kind: models.PeriodSeason, Year: 2022, Season: models.SeasonWinter}

	// December 2021 belongs to the winter labelled 2022
	assert.True(t, MatchesPeriod(eventOn(time.Date(2021, 12, 15, 0, 0, 0, 0, time.UTC)), winter2022, nil))
	assert.True(t, MatchesPeriod(eventOn(time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC)), winter2022, nil))
	assert.True(t, MatchesPeriod(eventOn(time.Date(2022, 2, 28, 0, 0, 0, 0, time.UTC)), winter2022, nil))

	// December 2022 is the winter of 2023
	assert.False(t, MatchesPeriod(eventOn(time.Date(2022, 12, 15, 0, 0, 0, 0, time.UTC)), winter2022, nil))
	assert.False(t, MatchesPeriod(eventOn(time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)), winter2022, nil))
	assert.False(t, MatchesPeriod(eventOn(time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)), winter2022, nil))
}

func TestMatchesPeriodEdgeCases(t *testing.T) {
	year2022 := &models.PeriodSpec{Kind: models.PeriodYear, Year: 2022}

	// events without a business date never match a concrete period
	undated := &models.Event{ID: "x"}
	assert.False(t, MatchesPeriod(undated, year2022, nil))

	// nil period matches everything
	assert.True(t, MatchesPeriod(undated, nil, nil))

	// relative period without an anchor fails open
	rel := &models.PeriodSpec{Kind: models.PeriodRelative, Unit: "year", Value: 3}
	assert.True(t, MatchesPeriod(eventOn(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)), rel, nil))

	// with an anchor, events outside the window are excluded
	anchor := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.False(t, MatchesPeriod(eventOn(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)), rel, &anchor))
	assert.True(t, MatchesPeriod(eventOn(time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)), rel, &anchor))
}

func TestMatchesPeriodBareMonth(t *testing.T) {
	july := &models.PeriodSpec{Kind: models.PeriodMonth, Month: 7}
	assert.True(t, MatchesPeriod(eventOn(time.Date(2021, 7, 3, 0, 0, 0, 0, time.UTC)), july, nil))
	assert.True(t, MatchesPeriod(eventOn(time.Date(2022, 7, 3, 0, 0, 0, 0, time.UTC)), july, nil))
	assert.False(t, MatchesPeriod(eventOn(time.Date(2022, 8, 3, 0, 0, 0, 0, time.UTC)), july, nil))
}
