package models

import (
	"strings"
	"time"
)

// Canonical fuel vocabulary. Adapters never emit anything outside this set.
const (
	FuelPetrol   = "petrol"
	FuelDiesel   = "diesel"
	FuelHybrid   = "hybrid"
	FuelElectric = "electric"
	FuelLPG      = "lpg"
	FuelUnknown  = "unknown"
)

// Canonical transmission vocabulary.
const (
	TransmissionAutomatic = "automatic"
	TransmissionManual    = "manual"
	TransmissionUnknown   = "unknown"
)

// Validated price bounds in currency units. Values outside are unit or
// decimal errors in source data and are dropped before storage.
const (
	MinValidPrice int64 = 100_000
	MaxValidPrice int64 = 50_000_000
)

// DateLayout is the partition key format for snapshots.
const DateLayout = "2006-01-02"

// PriceRecord is the canonical normalized row every vendor adapter produces.
type PriceRecord struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Trim         string `json:"trim"`
	Engine       string `json:"engine"`
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
	DisplayPrice string `json:"display_price"`
	Price        int64  `json:"price"`

	// Vendor-specific extensions, zero when the source does not publish them.
	ModelYear     int     `json:"model_year,omitempty"`
	TaxRate       float64 `json:"tax_rate,omitempty"`
	CampaignPrice int64   `json:"campaign_price,omitempty"`
}

// IdentityKey matches the same vehicle across snapshots despite vendor
// reformatting: lower-cased, whitespace-collapsed (model, trim, engine).
func (r PriceRecord) IdentityKey() string {
	return IdentityKey(r.Model, r.Trim, r.Engine)
}

// IdentityKey builds the normalized vehicle identity from its parts.
func IdentityKey(model, trim, engine string) string {
	return normKeyPart(model) + "|" + normKeyPart(trim) + "|" + normKeyPart(engine)
}

func normKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Snapshot is one day's complete price list for one brand. Immutable once
// written; a rewrite of the same (brand, date) replaces it wholesale.
type Snapshot struct {
	Brand       string        `json:"brand"`
	Date        string        `json:"date"`
	CollectedAt time.Time     `json:"collected_at"`
	RowCount    int           `json:"row_count"`
	Records     []PriceRecord `json:"records"`

	// Set when this day's collection failed or yielded zero rows and the
	// nearest prior snapshot was carried forward instead.
	IsFallback   bool   `json:"is_fallback,omitempty"`
	OriginalDate string `json:"original_date,omitempty"`
}

// BrandIndexEntry summarizes one brand's snapshot history.
type BrandIndexEntry struct {
	Name         string   `json:"name"`
	Dates        []string `json:"dates"` // sorted descending
	LatestDate   string   `json:"latest_date"`
	TotalRecords int      `json:"total_records"`
}

// BrandIndex is the store's directory of available snapshots.
type BrandIndex struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Brands    []BrandIndexEntry `json:"brands"`
}

// Entry returns the index entry for a brand, or nil.
func (idx *BrandIndex) Entry(brand string) *BrandIndexEntry {
	for i := range idx.Brands {
		if idx.Brands[i].Name == brand {
			return &idx.Brands[i]
		}
	}
	return nil
}

// Change event types.
const (
	EventNew           = "new"
	EventRemoved       = "removed"
	EventPriceIncrease = "price_increase"
	EventPriceDecrease = "price_decrease"
)

// ChangeEvent is one diff between two chronologically adjacent snapshots.
type ChangeEvent struct {
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Key      string `json:"key"`
	Model    string `json:"model"`
	Trim     string `json:"trim"`
	Engine   string `json:"engine"`
	Date     string `json:"date"`      // later snapshot date
	PrevDate string `json:"prev_date"` // earlier snapshot date

	OldPrice int64   `json:"old_price,omitempty"`
	NewPrice int64   `json:"new_price,omitempty"`
	Delta    int64   `json:"delta,omitempty"`
	Percent  float64 `json:"percent,omitempty"`

	// True when either side of the pair is a carried-forward fallback
	// snapshot, so consumers can filter out stale-data noise.
	FromFallback bool `json:"from_fallback,omitempty"`
}
