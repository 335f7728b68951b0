package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
	"fleet-insights/internal/store"
)

func fptr(f float64) *float64 { return &f }

type eventSpec struct {
	vehicle  string
	model    string
	code     string
	material string
	customer string
	fault    string
	date     string // 2006-01-02
	cost     float64
	qty      float64
}

func buildEvents(specs []eventSpec) []models.Event {
	events := make([]models.Event, 0, len(specs))
	for _, s := range specs {
		d, err := time.Parse("2006-01-02", s.date)
		if err != nil {
			panic(err)
		}
		ev := models.Event{
			ID:            s.date + "-" + s.material,
			VehicleID:     s.vehicle,
			VehicleModel:  s.model,
			Verb:          models.VerbMaintain,
			MaterialCode:  s.code,
			MaterialName:  s.material,
			CustomerID:    s.customer,
			FaultCode:     s.fault,
			OperationDate: &d,
		}
		if s.cost > 0 {
			ev.Cost = fptr(s.cost)
			ev.Quantity = fptr(s.qty)
		}
		events = append(events, ev)
	}
	return events
}

func newTestAnalyzer(t *testing.T, events []models.Event) *Analyzer {
	t.Helper()
	s := store.NewMemoryStore(events)
	return NewAnalyzer(s, store.NewAnchorCache(s, nil, logger.NewNoOpLogger()), logger.NewTestLogger(t))
}

func TestPriceTrend(t *testing.T) {
	events := buildEvents([]eventSpec{
		// rising: 100 -> 150 unit price
		{vehicle: "1", code: "81.1-1", material: "Motor Yağı", date: "2021-02-01", cost: 100, qty: 1},
		{vehicle: "1", code: "81.1-1", material: "Motor Yağı", date: "2022-02-01", cost: 150, qty: 1},
		// single observation: excluded
		{vehicle: "1", code: "81.2-1", material: "Antifriz", date: "2021-06-01", cost: 50, qty: 1},
		// falling: excluded
		{vehicle: "1", code: "81.3-1", material: "Fren Balatası", date: "2021-03-01", cost: 80, qty: 1},
		{vehicle: "1", code: "81.3-1", material: "Fren Balatası", date: "2022-03-01", cost: 60, qty: 1},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.PriceTrend(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "81.1-1", row.MaterialCode)
	assert.Equal(t, "Motor Yağı", row.MaterialName)
	assert.Equal(t, 100.0, row.FirstPrice)
	assert.Equal(t, 150.0, row.LastPrice)
	assert.Equal(t, 50.0, row.ChangeAbs)
	assert.Equal(t, 50.0, row.ChangePct)
	assert.Equal(t, 2, row.Observations)
}

func TestPriceTrendUnitPrice(t *testing.T) {
	// cost is per line, price per unit: 200/2=100 then 360/3=120
	events := buildEvents([]eventSpec{
		{vehicle: "1", code: "81.9-1", material: "Filtre", date: "2021-05-01", cost: 200, qty: 2},
		{vehicle: "1", code: "81.9-1", material: "Filtre", date: "2022-05-01", cost: 360, qty: 3},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.PriceTrend(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].FirstPrice)
	assert.Equal(t, 120.0, rows[0].LastPrice)
	assert.Equal(t, 20.0, rows[0].ChangePct)
}

func TestFamilyPriceTrend(t *testing.T) {
	// family 81.125: two rising members, 50% and 10%
	events := buildEvents([]eventSpec{
		{vehicle: "1", code: "81.125-1", material: "A", date: "2021-01-10", cost: 100, qty: 1},
		{vehicle: "1", code: "81.125-1", material: "A", date: "2022-01-10", cost: 150, qty: 1},
		{vehicle: "1", code: "81.125-2", material: "B", date: "2021-01-10", cost: 100, qty: 1},
		{vehicle: "1", code: "81.125-2", material: "B", date: "2022-01-10", cost: 110, qty: 1},
		// family 81.999: single rising member, below the member floor
		{vehicle: "1", code: "81.999-1", material: "C", date: "2021-01-10", cost: 100, qty: 1},
		{vehicle: "1", code: "81.999-1", material: "C", date: "2022-01-10", cost: 200, qty: 1},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.FamilyPriceTrend(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "81.125", rows[0].MaterialFamily)
	assert.Equal(t, 2, rows[0].MaterialsCount)
	assert.InDelta(t, 30.0, rows[0].AvgChangePct, 0.01)
}

func TestNextMaintenanceMaterials(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "70886", material: "Lastik", date: "2022-01-10"},
		{vehicle: "70886", material: "Fren Balatası", date: "2022-03-15"},
		{vehicle: "70886", material: "Yağ Filtresi", date: "2022-03-15"},
		{vehicle: "70886", material: "Lastik", date: "2022-06-20"},
	})
	a := newTestAnalyzer(t, events)

	res, err := a.NextMaintenanceMaterials(context.Background(), "lastik", "", 0)
	require.NoError(t, err)
	require.NotNil(t, res)

	// one trigger visit with a following visit
	assert.Equal(t, 1, res.MatchedPairs)
	require.Len(t, res.Rows, 2)
	for _, row := range res.Rows {
		assert.Equal(t, int64(1), row.Count)
		assert.Equal(t, 100.0, row.Ratio)
	}
}

func TestNextMaintenanceMaterialsNoMatch(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "70886", material: "Antifriz", date: "2022-01-10"},
	})
	a := newTestAnalyzer(t, events)

	res, err := a.NextMaintenanceMaterials(context.Background(), "lastik", "", 0)
	require.NoError(t, err)
	assert.Zero(t, res.MatchedPairs)
	assert.Empty(t, res.Rows)
	assert.NotEmpty(t, res.Note)
}

func TestVehicleHistory(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "70886", material: "Lastik", date: "2022-06-20", cost: 500, qty: 4},
		{vehicle: "70886", material: "Motor Yağı", date: "2022-01-10", cost: 100, qty: 1},
		{vehicle: "99999", material: "Antifriz", date: "2022-02-01"},
	})
	// a record with no business date is skipped
	events = append(events, models.Event{VehicleID: "70886", Verb: models.VerbMaintain, MaterialName: "Filtre"})
	a := newTestAnalyzer(t, events)

	rows, err := a.VehicleHistory(context.Background(), "70886", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// oldest first
	assert.Equal(t, "Motor Yağı", rows[0].MaterialName)
	assert.Equal(t, "Lastik", rows[1].MaterialName)
	assert.Equal(t, string(models.VerbMaintain), rows[0].VerbType)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, 100.0, *rows[0].Cost)
}

func TestMaterialPivotDecemberYearShift(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", material: "Antifriz", date: "2021-12-20"},
		{vehicle: "1", material: "Antifriz", date: "2022-01-15"},
		{vehicle: "1", material: "Klima Gazı", date: "2022-07-01"},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.MaterialPivot(context.Background(), true, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// both winter events land in the 2022 winter bucket
	assert.Equal(t, 2022, rows[0].Year)
	assert.Equal(t, "kis", rows[0].Bucket)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.Equal(t, "yaz", rows[1].Bucket)
}

func TestMaterialPivotOrdersEqualCounts(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", material: "C", date: "2022-07-05"},
		{vehicle: "1", material: "C", date: "2022-07-06"},
		{vehicle: "1", material: "A", date: "2023-01-15"},
		{vehicle: "1", material: "A", date: "2023-07-01"},
		{vehicle: "1", material: "B", date: "2022-01-10"},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.MaterialPivot(context.Background(), true, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// highest count first, then newest year, season order, material name
	assert.Equal(t, PivotRow{Year: 2022, Bucket: "yaz", MaterialName: "C", Count: 2}, rows[0])
	assert.Equal(t, PivotRow{Year: 2023, Bucket: "kis", MaterialName: "A", Count: 1}, rows[1])
	assert.Equal(t, PivotRow{Year: 2023, Bucket: "yaz", MaterialName: "A", Count: 1}, rows[2])
	assert.Equal(t, PivotRow{Year: 2022, Bucket: "kis", MaterialName: "B", Count: 1}, rows[3])
}

func TestMaterialPivotByMonth(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", material: "Antifriz", date: "2021-12-20"},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.MaterialPivot(context.Background(), false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// month buckets keep the calendar year
	assert.Equal(t, 2021, rows[0].Year)
	assert.Equal(t, "12", rows[0].Bucket)
}

func TestTopMaterialsPerYearSeason(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", material: "A", date: "2022-01-10"},
		{vehicle: "1", material: "A", date: "2022-01-11"},
		{vehicle: "1", material: "B", date: "2022-01-12"},
		{vehicle: "1", material: "C", date: "2022-07-01"},
	})
	a := newTestAnalyzer(t, events)

	rows, err := a.TopMaterialsPerYearSeason(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "kis", rows[0].Season)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "A", rows[0].MaterialName)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "B", rows[1].MaterialName)
	assert.Equal(t, "yaz", rows[2].Season)
	assert.Equal(t, "C", rows[2].MaterialName)
}

func TestTopEntities(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", model: "rhc 404", material: "Motor Yağı", date: "2022-01-10"},
		{vehicle: "2", model: "rhc 404", material: "Motor Yağı", date: "2022-02-10"},
		{vehicle: "3", model: "rhc 302", material: "Antifriz", date: "2022-03-10"},
	})
	a := newTestAnalyzer(t, events)

	res, err := a.TopEntities(context.Background(), TopEntityRequest{EntityType: "material", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Motor Yağı", res.Rows[0].Entity)
	assert.Equal(t, int64(2), res.Rows[0].Count)
	assert.Equal(t, int64(3), res.TotalEvents)
	assert.NotEmpty(t, res.AnchorDate)

	// limit is honored
	res, err = a.TopEntities(context.Background(), TopEntityRequest{EntityType: "material", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestTopEntitiesFaultsOnly(t *testing.T) {
	// C1 has three fault-free visits, C2 one with a fault code; the
	// faults-only ranking must not count the fault-free visits
	events := buildEvents([]eventSpec{
		{vehicle: "1", customer: "C1", material: "Motor Yağı", date: "2022-01-10"},
		{vehicle: "1", customer: "C1", material: "Antifriz", date: "2022-02-10"},
		{vehicle: "1", customer: "C1", material: "Filtre", date: "2022-03-10"},
		{vehicle: "2", customer: "C2", material: "Fren Balatası", fault: "F-17", date: "2022-04-10"},
	})
	a := newTestAnalyzer(t, events)

	res, err := a.TopEntities(context.Background(), TopEntityRequest{
		EntityType: "customer",
		FaultsOnly: true,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "C2", res.Rows[0].Entity)
	assert.Equal(t, int64(1), res.Rows[0].Count)
	assert.Equal(t, int64(1), res.TotalEvents)

	// sentinel fault codes still count as fault-free
	events[0].FaultCode = "0"
	a = newTestAnalyzer(t, events)
	res, err = a.TopEntities(context.Background(), TopEntityRequest{
		EntityType: "customer",
		FaultsOnly: true,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "C2", res.Rows[0].Entity)
}

func TestTopEntitiesWithPeriod(t *testing.T) {
	events := buildEvents([]eventSpec{
		{vehicle: "1", material: "Antifriz", date: "2021-12-20"}, // winter of 2022
		{vehicle: "1", material: "Antifriz", date: "2022-07-01"}, // summer
	})
	a := newTestAnalyzer(t, events)

	res, err := a.TopEntities(context.Background(), TopEntityRequest{
		EntityType: "material",
		Period:     &models.PeriodSpec{Kind: models.PeriodSeason, Year: 2022, Season: models.SeasonWinter},
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0].Count)
}
