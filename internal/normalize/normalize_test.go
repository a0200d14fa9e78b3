package normalize

import (
	"testing"

	"car-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFuel(t *testing.T) {
	cases := map[string]string{
		"Benzin":             models.FuelPetrol,
		"PETROL":             models.FuelPetrol,
		"Dizel":              models.FuelDiesel,
		"1.5 BlueHDi Diesel": models.FuelDiesel,
		"Elektrik":           models.FuelElectric,
		"Hibrit":             models.FuelHybrid,
		"Full Hybrid":        models.FuelHybrid,
		"Plug-in Hybrid":     models.FuelHybrid,
		"LPG":                models.FuelLPG,
		"":                   models.FuelUnknown,
		"kerosene":           models.FuelUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Fuel(raw), "raw=%q", raw)
	}
}

func TestFuelCombinedSpellingsBeforeGeneric(t *testing.T) {
	// A combined powertrain spelling contains both generic substrings; the
	// ordered rules must resolve it as hybrid, never electric or petrol.
	assert.Equal(t, models.FuelHybrid, Fuel("Elektrik-Benzin"))
	assert.Equal(t, models.FuelHybrid, Fuel("electric-petrol"))
	assert.Equal(t, models.FuelHybrid, Fuel("Benzin-Elektrik Hibrit"))
}

func TestTransmission(t *testing.T) {
	cases := map[string]string{
		"Otomatik":    models.TransmissionAutomatic,
		"7-speed DSG": models.TransmissionAutomatic,
		"e-CVT":       models.TransmissionAutomatic,
		"Manuel":      models.TransmissionManual,
		"6 MT Manual": models.TransmissionManual,
		"Düz Vites":   models.TransmissionManual,
		"":            models.TransmissionUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Transmission(raw), "raw=%q", raw)
	}
}

func TestPrice(t *testing.T) {
	cases := []struct {
		display string
		want    int64
		ok      bool
	}{
		{"1.400.000 TL", 1_400_000, true},
		{"1.400.000,50 TL", 1_400_000, true},
		{"Fiyat: 2.149.900", 2_149_900, true},
		{"985000", 985_000, true},
		{"450", 0, false},
		{"fiyat açıklanacak", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := Price(tc.display)
		assert.Equal(t, tc.ok, ok, "display=%q", tc.display)
		assert.Equal(t, tc.want, got, "display=%q", tc.display)
	}
}

func TestRecordsDropsOutOfBoundsPrices(t *testing.T) {
	logger := zap.NewNop()
	in := []models.PriceRecord{
		{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_400_000, Fuel: "Benzin", Transmission: "Manuel"},
		{Brand: "fiat", Model: "Egea", Trim: "Urban", Price: 14_000},          // decimal slip, below bounds
		{Brand: "fiat", Model: "Egea", Trim: "Lounge", Price: 1_400_000_000}, // unit slip, above bounds
	}
	out := Records(logger, in)
	assert.Len(t, out, 1)
	assert.Equal(t, "Street", out[0].Trim)
	assert.Equal(t, models.FuelPetrol, out[0].Fuel)
	assert.Equal(t, models.TransmissionManual, out[0].Transmission)
}

func TestRecordsDeterministic(t *testing.T) {
	logger := zap.NewNop()
	in := []models.PriceRecord{
		{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_400_000, Fuel: "Hibrit", Transmission: "Otomatik"},
		{Brand: "fiat", Model: "Egea", Trim: "Urban", Price: 1_500_000, Fuel: "Dizel", Transmission: "Manuel"},
	}
	first := Records(logger, append([]models.PriceRecord(nil), in...))
	second := Records(logger, append([]models.PriceRecord(nil), in...))
	assert.Equal(t, first, second)
}
