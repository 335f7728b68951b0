package patterns

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fleet-insights/internal/models"
	"fleet-insights/internal/nlp"
	"fleet-insights/internal/query"
	"fleet-insights/internal/store"
)

// TopEntityRequest parameterizes the overall top-N entity scan.
type TopEntityRequest struct {
	EntityType     string // "material", "vehicle", "vehicleType", "vehicleModel", "customer", "serviceLocation", "faultCode"
	Period         *models.PeriodSpec
	MaterialFilter string // substring on the normalized material name
	ModelFilter    string
	VehicleFilter  string
	FaultsOnly     bool // count only events carrying a fault code
	Limit          int
}

// TopEntityRow is one ranked entity with its usage count.
type TopEntityRow struct {
	Entity     string `json:"entity"`
	Count      int64  `json:"count"`
	EntityType string `json:"entityType"`
}

// TopEntityResult carries the rows plus the effective period metadata the
// answer renderer needs.
type TopEntityResult struct {
	Rows        []TopEntityRow `json:"rows"`
	PeriodText  string         `json:"periodText,omitempty"`
	AnchorDate  string         `json:"anchorDate,omitempty"`
	TotalEvents int64          `json:"totalEvents"`
}

// TopEntities counts events per entity value and returns the most frequent.
// When a single vehicle is asked about, the operation-verb restriction is
// lifted so inspections of that vehicle count too.
func (a *Analyzer) TopEntities(ctx context.Context, req TopEntityRequest) (*TopEntityResult, error) {
	defer observeScan("top_entities", time.Now())

	q := store.Query{}
	if req.VehicleFilter == "" {
		q.Verbs = operationVerbs
	} else {
		q.VehicleID = req.VehicleFilter
	}
	events, err := a.store.Scan(ctx, q)
	if err != nil {
		return nil, err
	}

	anchor := a.anchorDate(ctx)
	res := topEntities(events, req, anchor)
	if anchor != nil {
		res.AnchorDate = anchor.Format("2006-01-02")
	}
	res.PeriodText = describePeriod(req.Period)
	return res, nil
}

func topEntities(events []models.Event, req TopEntityRequest, anchor *time.Time) *TopEntityResult {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	materialNeedle := nlp.Normalize(req.MaterialFilter)
	modelWant := nlp.Normalize(req.ModelFilter)

	counter := map[string]int64{}
	var total int64
	for i := range events {
		ev := &events[i]
		if !query.MatchesPeriod(ev, req.Period, anchor) {
			continue
		}
		if materialNeedle != "" && !strings.Contains(nlp.Normalize(ev.MaterialName), materialNeedle) {
			continue
		}
		if modelWant != "" && nlp.Normalize(ev.VehicleModel) != modelWant {
			continue
		}
		if req.VehicleFilter != "" && ev.VehicleID != req.VehicleFilter {
			continue
		}
		if req.FaultsOnly && !ev.HasFault() {
			continue
		}
		key := entityValue(ev, req.EntityType)
		if key == "" {
			continue
		}
		counter[key]++
		total++
	}

	rows := make([]TopEntityRow, 0, limit)
	for _, kc := range topCounts(counter, limit) {
		rows = append(rows, TopEntityRow{
			Entity:     kc.key,
			Count:      kc.count,
			EntityType: req.EntityType,
		})
	}
	return &TopEntityResult{Rows: rows, TotalEvents: total}
}

func entityValue(ev *models.Event, entityType string) string {
	switch entityType {
	case "material":
		return ev.MaterialName
	case "vehicle":
		return strings.TrimPrefix(ev.VehicleID, "vehicle/")
	case "vehicleType":
		return ev.VehicleType
	case "vehicleModel":
		return ev.VehicleModel
	case "customer":
		return ev.CustomerID
	case "serviceLocation":
		return ev.ServiceLocation
	case "faultCode":
		if !ev.HasFault() {
			return ""
		}
		return ev.FaultCode
	}
	return ""
}

var turkishSeasonNames = map[string]string{
	models.SeasonWinter: "kis",
	models.SeasonSpring: "ilkbahar",
	models.SeasonSummer: "yaz",
	models.SeasonAutumn: "sonbahar",
}

var turkishMonthNames = [13]string{"", "ocak", "subat", "mart", "nisan", "mayis",
	"haziran", "temmuz", "agustos", "eylul", "ekim", "kasim", "aralik"}

// describePeriod renders the effective period as short Turkish text.
func describePeriod(p *models.PeriodSpec) string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case models.PeriodYear:
		return strconv.Itoa(p.Year)
	case models.PeriodMonth:
		if p.Year > 0 && p.Month > 0 {
			return strconv.Itoa(p.Year) + " " + turkishMonthNames[p.Month]
		}
		if p.Month > 0 {
			return turkishMonthNames[p.Month]
		}
	case models.PeriodSeason:
		name := turkishSeasonNames[p.Season]
		if p.Year > 0 {
			return strconv.Itoa(p.Year) + " " + name
		}
		return name
	case models.PeriodRelative:
		if p.Unit == "year" {
			return "son " + strconv.Itoa(p.Value) + " yil"
		}
		return "son " + strconv.Itoa(p.Value) + " ay"
	case models.PeriodRange:
		return p.StartDate + " / " + p.EndDate
	}
	return ""
}
