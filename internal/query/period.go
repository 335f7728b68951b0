package query

import (
	"time"

	"fleet-insights/internal/models"
)

// seasonMonths maps a season key to its calendar months. Winter straddles the
// year boundary: December belongs to the following winter.
var seasonMonths = map[string][3]time.Month{
	models.SeasonWinter: {12, 1, 2},
	models.SeasonSpring: {3, 4, 5},
	models.SeasonSummer: {6, 7, 8},
	models.SeasonAutumn: {9, 10, 11},
}

// BuildPeriod derives a period spec from extracted entities. Precedence:
// relative period, then year+month, year+season, explicit year(s), bare
// month, bare season. Returns nil when the question names no time at all.
func BuildPeriod(e *models.ExtractedEntities) *models.PeriodSpec {
	if e.RelativeUnit != "" && e.RelativeValue > 0 {
		return &models.PeriodSpec{
			Kind:  models.PeriodRelative,
			Unit:  e.RelativeUnit,
			Value: e.RelativeValue,
		}
	}
	if len(e.Years) > 0 && len(e.Months) > 0 {
		return &models.PeriodSpec{
			Kind:  models.PeriodMonth,
			Year:  e.Years[0],
			Month: e.Months[0],
		}
	}
	if len(e.Years) > 0 && len(e.Seasons) > 0 {
		return &models.PeriodSpec{
			Kind:   models.PeriodSeason,
			Year:   e.Years[0],
			Season: e.Seasons[0],
		}
	}
	if len(e.Years) > 1 {
		first, last := e.Years[0], e.Years[0]
		for _, y := range e.Years[1:] {
			if y < first {
				first = y
			}
			if y > last {
				last = y
			}
		}
		return &models.PeriodSpec{
			Kind:      models.PeriodRange,
			StartDate: time.Date(first, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			EndDate:   time.Date(last+1, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		}
	}
	if len(e.Years) == 1 {
		return &models.PeriodSpec{Kind: models.PeriodYear, Year: e.Years[0]}
	}
	if len(e.Months) > 0 {
		return &models.PeriodSpec{Kind: models.PeriodMonth, Month: e.Months[0]}
	}
	if len(e.Seasons) > 0 {
		return &models.PeriodSpec{Kind: models.PeriodSeason, Season: e.Seasons[0]}
	}
	return nil
}

// ResolveRange turns a period spec into a concrete [start, end) window.
// Relative periods anchor on the dataset's newest business date, never on
// the wall clock: a nil anchor yields no range. Relative years cover whole
// calendar years ending with the anchor's year; relative months approximate
// a month as 30 days back from the anchor.
func ResolveRange(p *models.PeriodSpec, anchor *time.Time) (models.TimeRange, bool) {
	if p == nil {
		return models.TimeRange{}, false
	}
	switch p.Kind {
	case models.PeriodRelative:
		if anchor == nil {
			return models.TimeRange{}, false
		}
		switch p.Unit {
		case "year":
			start := time.Date(anchor.Year()-p.Value+1, 1, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(anchor.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
			return models.TimeRange{Start: start, End: end}, true
		case "month":
			end := anchor.Add(24 * time.Hour)
			start := anchor.AddDate(0, 0, -30*p.Value)
			return models.TimeRange{Start: start, End: end}, true
		}
		return models.TimeRange{}, false

	case models.PeriodYear:
		if p.Year == 0 {
			return models.TimeRange{}, false
		}
		return models.TimeRange{
			Start: time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(p.Year+1, 1, 1, 0, 0, 0, 0, time.UTC),
		}, true

	case models.PeriodMonth:
		// a bare month has no concrete window; callers match month-of-date
		if p.Year == 0 || p.Month == 0 {
			return models.TimeRange{}, false
		}
		start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		return models.TimeRange{Start: start, End: start.AddDate(0, 1, 0)}, true

	case models.PeriodRange:
		start, err1 := time.Parse("2006-01-02", p.StartDate)
		end, err2 := time.Parse("2006-01-02", p.EndDate)
		if err1 != nil || err2 != nil {
			return models.TimeRange{}, false
		}
		return models.TimeRange{Start: start, End: end}, true
	}
	return models.TimeRange{}, false
}

// MatchesPeriod reports whether an event's business date falls inside the
// period. Events without a business date never match a concrete period. An
// unknown period kind, or a relative period with no anchor, fails open.
func MatchesPeriod(ev *models.Event, p *models.PeriodSpec, anchor *time.Time) bool {
	if p == nil {
		return true
	}
	if !ev.HasOperationDate() {
		return false
	}
	t := *ev.OperationDate

	switch p.Kind {
	case models.PeriodSeason:
		return matchesSeason(t, p.Season, p.Year)

	case models.PeriodMonth:
		if p.Month == 0 {
			return true
		}
		if int(t.Month()) != p.Month {
			return false
		}
		return p.Year == 0 || t.Year() == p.Year

	case models.PeriodYear:
		return p.Year == 0 || t.Year() == p.Year

	case models.PeriodRelative:
		if anchor == nil {
			return true
		}
		r, ok := ResolveRange(p, anchor)
		if !ok {
			return true
		}
		return r.Contains(t)

	case models.PeriodRange:
		r, ok := ResolveRange(p, nil)
		if !ok {
			return true
		}
		return r.Contains(t)
	}
	return true
}

// matchesSeason handles the winter year shift: a December event belongs to
// the winter labelled with the following year, so for winter of year Y the
// matching Decembers are those of Y-1.
func matchesSeason(t time.Time, season string, year int) bool {
	months, ok := seasonMonths[season]
	if !ok {
		return true
	}
	inSeason := false
	for _, m := range months {
		if t.Month() == m {
			inSeason = true
			break
		}
	}
	if !inSeason {
		return false
	}
	if year == 0 {
		return true
	}
	if season == models.SeasonWinter && t.Month() == time.December {
		return t.Year() == year-1
	}
	return t.Year() == year
}
