// Package normalize maps free-form vendor fuel/transmission spellings into the
// canonical vocabulary and validates prices before they reach the store.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"car-intel/internal/models"

	"go.uber.org/zap"
)

type rule struct {
	substr string
	value  string
}

// Ordered fuel rules. Order is part of the contract: combined powertrain
// spellings must match before the generic electric/petrol substrings they
// contain, since "elektrik-benzin" denotes a hybrid, not a pure powertrain.
var fuelRules = []rule{
	{"benzin-elektrik", models.FuelHybrid},
	{"elektrik-benzin", models.FuelHybrid},
	{"petrol-electric", models.FuelHybrid},
	{"electric-petrol", models.FuelHybrid},
	{"plug-in", models.FuelHybrid},
	{"plugin", models.FuelHybrid},
	{"phev", models.FuelHybrid},
	{"hibrit", models.FuelHybrid},
	{"hybrid", models.FuelHybrid},
	{"e-tech full", models.FuelHybrid},
	{"elektrik", models.FuelElectric},
	{"electric", models.FuelElectric},
	{"e-motor", models.FuelElectric},
	{"dizel", models.FuelDiesel},
	{"diesel", models.FuelDiesel},
	{"tdi", models.FuelDiesel},
	{"otogaz", models.FuelLPG},
	{"lpg", models.FuelLPG},
	{"benzin", models.FuelPetrol},
	{"petrol", models.FuelPetrol},
	{"gasoline", models.FuelPetrol},
	{"tsi", models.FuelPetrol},
	{"gdi", models.FuelPetrol},
}

// Ordered transmission rules. Gearbox trade names count as automatic.
var transmissionRules = []rule{
	{"otomatik", models.TransmissionAutomatic},
	{"automatic", models.TransmissionAutomatic},
	{"dsg", models.TransmissionAutomatic},
	{"dct", models.TransmissionAutomatic},
	{"cvt", models.TransmissionAutomatic},
	{"edc", models.TransmissionAutomatic},
	{"e-cvt", models.TransmissionAutomatic},
	{"tiptronic", models.TransmissionAutomatic},
	{"s tronic", models.TransmissionAutomatic},
	{"steptronic", models.TransmissionAutomatic},
	{"auto", models.TransmissionAutomatic},
	{"manuel", models.TransmissionManual},
	{"manual", models.TransmissionManual},
	{"düz vites", models.TransmissionManual},
	{"mekanik", models.TransmissionManual},
}

// Fuel maps a raw vendor fuel string to the canonical vocabulary.
func Fuel(raw string) string {
	return applyRules(raw, fuelRules, models.FuelUnknown)
}

// Transmission maps a raw vendor transmission string to the canonical vocabulary.
func Transmission(raw string) string {
	return applyRules(raw, transmissionRules, models.TransmissionUnknown)
}

func applyRules(raw string, rules []rule, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return fallback
	}
	for _, r := range rules {
		if strings.Contains(s, r.substr) {
			return r.value
		}
	}
	return fallback
}

// currencyToken matches thousand-separated price tokens ("1.400.000",
// "1.400.000,50 TL") or bare runs of six or more digits.
var currencyToken = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d{6,}`)

// Price extracts the first currency-formatted numeric token from a display
// string and returns it in whole currency units.
func Price(display string) (int64, bool) {
	tok := currencyToken.FindString(display)
	if tok == "" {
		return 0, false
	}
	// Decimal fraction after a comma is noise at this magnitude.
	if i := strings.IndexByte(tok, ','); i >= 0 {
		tok = tok[:i]
	}
	tok = strings.ReplaceAll(tok, ".", "")
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceValid reports whether a numeric price is inside the trusted bounds.
func PriceValid(price int64) bool {
	return price >= models.MinValidPrice && price <= models.MaxValidPrice
}

// Records canonicalizes fuel and transmission on every record and drops rows
// whose price fails the bounds check. Dropped rows are logged, never silently
// retained, so a vendor's unit or decimal slip cannot poison the statistics.
func Records(logger *zap.Logger, records []models.PriceRecord) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(records))
	for _, r := range records {
		r.Fuel = Fuel(r.Fuel)
		r.Transmission = Transmission(r.Transmission)
		if !PriceValid(r.Price) {
			logger.Warn("dropping record with out-of-bounds price",
				zap.String("brand", r.Brand),
				zap.String("model", r.Model),
				zap.String("trim", r.Trim),
				zap.Int64("price", r.Price))
			continue
		}
		if r.CampaignPrice != 0 && !PriceValid(r.CampaignPrice) {
			r.CampaignPrice = 0
		}
		out = append(out, r)
	}
	return out
}
