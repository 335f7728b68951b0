package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet-insights/internal/models"
)

func TestExtractTime(t *testing.T) {
	x := NewExtractor()

	tests := []struct {
		name    string
		input   string
		years   []int
		months  []int
		seasons []string
	}{
		{
			name:    "year and season",
			input:   "2022 yılında kışın en çok kullanılan malzemeler",
			years:   []int{2022},
			seasons: []string{models.SeasonWinter},
		},
		{
			name:   "named month",
			input:  "ocak ayında yapılan bakımlar",
			months: []int{1},
		},
		{
			name:  "multiple years deduplicated",
			input: "2021 ve 2022 ve 2021 yıllarında",
			years: []int{2021, 2022},
		},
		{
			name:    "autumn wins over spring substring",
			input:   "sonbahar aylarında",
			seasons: []string{models.SeasonAutumn},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := x.Extract(tt.input)
			assert.Equal(t, tt.years, e.Years)
			assert.Equal(t, tt.months, e.Months)
			assert.Equal(t, tt.seasons, e.Seasons)
		})
	}
}

func TestExtractRelativePeriod(t *testing.T) {
	unit, value, ok := ExtractRelativePeriod("son 6 ayda kullanilan malzemeler")
	assert.True(t, ok)
	assert.Equal(t, "month", unit)
	assert.Equal(t, 6, value)

	unit, value, ok = ExtractRelativePeriod("son 3 yilda fiyati artan malzemeler")
	assert.True(t, ok)
	assert.Equal(t, "year", unit)
	assert.Equal(t, 3, value)

	_, _, ok = ExtractRelativePeriod("2022 yilinda")
	assert.False(t, ok)
}

func TestExtractVehicleIDs(t *testing.T) {
	x := NewExtractor()

	e := x.Extract("70886 numaralı aracın bakım geçmişi")
	assert.Equal(t, []string{"70886"}, e.VehicleIDs)

	// years and short numbers are not vehicle IDs
	e = x.Extract("2022 yılında 5 malzeme")
	assert.Empty(t, e.VehicleIDs)

	// longer digit runs are not IDs either
	e = x.Extract("1234567 nolu kayıt")
	assert.Empty(t, e.VehicleIDs)
}

func TestExtractVehicleModels(t *testing.T) {
	x := NewExtractor()

	e := x.Extract("rhc 404 400 modeli araçlarda kullanılan malzemeler")
	assert.Contains(t, e.VehicleModels, "rhc 404 400")
	assert.Contains(t, e.VehicleModels, "rhc 404")
	assert.Contains(t, e.VehicleModels, "400")

	e = x.Extract("rhc 404 bakım kayıtları")
	assert.Equal(t, []string{"rhc 404"}, e.VehicleModels)
}

func TestExtractTopLimit(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"en cok kullanilan 5 malzeme", 5},
		{"ilk 20 ariza kodu", 20},
		{"top 3 malzeme", 3},
		{"en cok kullanilan malzemeler", DefaultTopLimit},
		{"ilk 500 kayit", MaxTopLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExtractTopLimit(tt.input, DefaultTopLimit), tt.input)
	}
}

func TestExtractTopSignal(t *testing.T) {
	x := NewExtractor()

	e := x.Extract("2022 yılında kışın en çok kullanılan 5 malzeme")
	assert.True(t, e.HasTopSignal)
	assert.Equal(t, 5, e.TopLimit)

	e = x.Extract("70886 aracının bakım geçmişi")
	assert.False(t, e.HasTopSignal)
	assert.Zero(t, e.TopLimit)
}

func TestExtractConditionMaterial(t *testing.T) {
	x := NewExtractor()

	e := x.Extract("lastik değiştirildiğinde bir sonraki bakımda ne geliyor")
	assert.Equal(t, "lastik", e.ConditionMaterial)

	e = x.Extract("fren balatası malzemesi kullanıldığında sonraki bakımda ne değişiyor")
	assert.Equal(t, "balatasi", e.ConditionMaterial)

	// no follow-up phrasing: no condition material
	e = x.Extract("lastik kullanımı nasıl")
	assert.Empty(t, e.ConditionMaterial)
}

func TestExtractQuotedMaterial(t *testing.T) {
	x := NewExtractor()

	e := x.Extract(`"fren balatası" malzemesinin kullanımı`)
	assert.Equal(t, []string{"fren balatasi"}, e.MaterialKeywords)
}

func TestExtractServiceAndCustomer(t *testing.T) {
	x := NewExtractor()

	e := x.Extract("r117 servisinde yapılan bakımlar")
	assert.Equal(t, []string{"R117"}, e.ServiceLocations)

	e = x.Extract("müşteri 1234 için bakım kayıtları")
	assert.Equal(t, []string{"1234"}, e.CustomerIDs)
}
