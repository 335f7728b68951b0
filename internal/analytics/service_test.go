package analytics

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

func dated(vehicle, material, day string) models.Event {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.Event{
		ID:            vehicle + "-" + day,
		VehicleID:     vehicle,
		Verb:          models.VerbMaintain,
		MaterialName:  material,
		OperationDate: &d,
		Quantity:      fptr(1),
		Cost:          fptr(100),
	}
}

func newTestService(t *testing.T, events []models.Event) *Service {
	t.Helper()
	s := store.NewMemoryStore(events)
	return NewService(s, store.NewAnchorCache(s, nil, logger.NewNoOpLogger()), logger.NewTestLogger(t))
}

func TestAnalyzeResolvesPlan(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Analyze("en çok kullanılan malzemeler")
	require.NotNil(t, res.Plan)
	assert.Equal(t, models.QuestionMaterialUsage, res.QuestionType)
	assert.Contains(t, res.Plan.GroupBy, "materialName")
}

func TestAskWinterTopMaterials(t *testing.T) {
	svc := newTestService(t, []models.Event{
		dated("1", "Antifriz", "2021-12-20"), // winter of 2022
		dated("1", "Antifriz", "2022-01-15"),
		dated("1", "Motor Yağı", "2022-07-10"),
	})

	ans, err := svc.Ask(context.Background(), "2022 yılında kışın en çok kullanılan 5 malzeme")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.TraceID)
	assert.Equal(t, models.QuestionMaterialUsage, ans.Analysis.QuestionType)

	// the season filter routes this through the aggregation engine
	require.Len(t, ans.Rows, 1)
	assert.Equal(t, "Antifriz", ans.Rows[0]["materialName"])
	assert.Equal(t, int64(2), ans.Rows[0]["count"])
}

func TestAskVehicleHistory(t *testing.T) {
	svc := newTestService(t, []models.Event{
		dated("70886", "Lastik", "2022-06-20"),
		dated("70886", "Motor Yağı", "2022-01-10"),
		dated("99999", "Antifriz", "2022-02-01"),
	})

	ans, err := svc.Ask(context.Background(), "70886 numaralı aracın bakım geçmişi")
	require.NoError(t, err)
	assert.Equal(t, "70886", ans.Meta["vehicleId"])

	require.Len(t, ans.Rows, 2)
	// oldest first
	assert.Equal(t, "Motor Yağı", ans.Rows[0]["materialName"])
	assert.Equal(t, "Lastik", ans.Rows[1]["materialName"])
}

func TestAskNextMaintenance(t *testing.T) {
	svc := newTestService(t, []models.Event{
		dated("70886", "Lastik", "2022-01-10"),
		dated("70886", "Fren Balatası", "2022-03-15"),
	})

	ans, err := svc.Ask(context.Background(),
		"lastik değiştirildiğinde bir sonraki bakımda hangi malzemeler kullanılıyor")
	require.NoError(t, err)
	assert.Equal(t, 1, ans.Meta["matchedPairs"])

	require.Len(t, ans.Rows, 1)
	assert.Equal(t, "fren balatasi", ans.Rows[0]["material"])
	// pattern rows pass through json, so numbers arrive as float64
	assert.Equal(t, 100.0, ans.Rows[0]["ratio"])
}

func TestAskFaultsByCustomerCountsFaultyEventsOnly(t *testing.T) {
	// C1 has three fault-free visits, C2 a single faulty one; the ranking
	// must surface C2, not the customer with the most visits overall
	withCustomer := func(ev models.Event, customer, fault string) models.Event {
		ev.CustomerID = customer
		ev.FaultCode = fault
		return ev
	}
	svc := newTestService(t, []models.Event{
		withCustomer(dated("1", "Motor Yağı", "2022-01-10"), "C1", ""),
		withCustomer(dated("1", "Antifriz", "2022-02-10"), "C1", ""),
		withCustomer(dated("1", "Filtre", "2022-03-10"), "C1", ""),
		withCustomer(dated("2", "Fren Balatası", "2022-04-10"), "C2", "F-17"),
	})

	ans, err := svc.Ask(context.Background(), "hangi müşterilerde en çok arıza var")
	require.NoError(t, err)

	require.NotNil(t, ans.Analysis.Plan)
	assert.Contains(t, ans.Analysis.Plan.GroupBy, "customer")
	assert.Equal(t, true, ans.Analysis.Plan.Filters["hasFault"])

	require.Len(t, ans.Rows, 1)
	assert.Equal(t, "C2", ans.Rows[0]["entity"])
	assert.Equal(t, 1.0, ans.Rows[0]["count"])
}

func TestAskTopEntitiesWithLimitOverride(t *testing.T) {
	svc := newTestService(t, []models.Event{
		dated("1", "Motor Yağı", "2022-01-10"),
		dated("2", "Motor Yağı", "2022-02-10"),
		dated("3", "Antifriz", "2022-03-10"),
	})

	ans, err := svc.AskWithOverride(context.Background(), "en çok kullanılan malzemeler",
		map[string]interface{}{"limit": float64(1)})
	require.NoError(t, err)

	require.Len(t, ans.Rows, 1)
	assert.Equal(t, "Motor Yağı", ans.Rows[0]["entity"])
	assert.Equal(t, int64(3), ans.Meta["totalEvents"])
}

func TestAskWithOverrideRejected(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.AskWithOverride(context.Background(), "en çok kullanılan malzemeler",
		map[string]interface{}{"explode": true})
	assert.Error(t, err)

	_, err = svc.AskWithOverride(context.Background(), "en çok kullanılan malzemeler",
		map[string]interface{}{"limit": float64(0)})
	assert.Error(t, err)
}

func TestAskEmptyQuestionFallsBack(t *testing.T) {
	svc := newTestService(t, []models.Event{
		dated("1", "Motor Yağı", "2022-01-10"),
	})

	ans, err := svc.Ask(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "general_statistics", ans.Meta["fallback"])
	require.Len(t, ans.Rows, 1)
	assert.Equal(t, "Motor Yağı", ans.Rows[0]["entity"])
}
