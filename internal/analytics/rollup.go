package analytics

import (
	"context"
	"sort"
	"time"

	"car-intel/internal/models"
	"car-intel/internal/segment"
	"car-intel/internal/store"
)

// BrandLatest is one brand's slice of the latest-snapshot rollup.
type BrandLatest struct {
	Brand        string               `json:"brand"`
	Date         string               `json:"date"`
	IsFallback   bool                 `json:"is_fallback,omitempty"`
	OriginalDate string               `json:"original_date,omitempty"`
	RowCount     int                  `json:"row_count"`
	Records      []models.PriceRecord `json:"records"`
}

// LatestRollup is the combined newest state of every brand; the presentation
// layer reads this, never the raw snapshots.
type LatestRollup struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Brands      []BrandLatest `json:"brands"`
}

// SearchRow is one flattened, classify-enriched row of the search index.
type SearchRow struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Trim         string `json:"trim"`
	Engine       string `json:"engine,omitempty"`
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
	Class        string `json:"class"`
	Band         string `json:"band"`
	Price        int64  `json:"price"`
}

// SearchIndex is the flattened search artifact.
type SearchIndex struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        []SearchRow `json:"rows"`
}

// BrandStats aggregates one brand's latest prices.
type BrandStats struct {
	Brand string  `json:"brand"`
	Count int     `json:"count"`
	Min   int64   `json:"min"`
	Avg   float64 `json:"avg"`
	Max   int64   `json:"max"`
}

// ClassStats aggregates one vehicle class's latest prices.
type ClassStats struct {
	Class string  `json:"class"`
	Count int     `json:"count"`
	Min   int64   `json:"min"`
	Avg   float64 `json:"avg"`
	Max   int64   `json:"max"`
}

// StatsArtifact is the precomputed aggregate statistics artifact.
type StatsArtifact struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Total       int          `json:"total"`
	Brands      []BrandStats `json:"brands"`
	Classes     []ClassStats `json:"classes"`
}

// Promo is a record whose campaign price undercuts its list price.
type Promo struct {
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Trim          string  `json:"trim"`
	ListPrice     int64   `json:"list_price"`
	CampaignPrice int64   `json:"campaign_price"`
	Discount      int64   `json:"discount"`
	Percent       float64 `json:"percent"`
}

// PromosArtifact lists the currently running campaigns, deepest cut first.
type PromosArtifact struct {
	GeneratedAt time.Time `json:"generated_at"`
	Promos      []Promo   `json:"promos"`
}

// BuildLatestRollup combines every brand's newest snapshot.
func BuildLatestRollup(ctx context.Context, st store.Store) (LatestRollup, error) {
	rollup := LatestRollup{GeneratedAt: time.Now()}
	snaps, err := latestSnapshots(ctx, st)
	if err != nil {
		return rollup, err
	}
	for _, s := range snaps {
		rollup.Brands = append(rollup.Brands, BrandLatest{
			Brand:        s.Brand,
			Date:         s.Date,
			IsFallback:   s.IsFallback,
			OriginalDate: s.OriginalDate,
			RowCount:     s.RowCount,
			Records:      s.Records,
		})
	}
	return rollup, nil
}

// BuildSearchIndex flattens the latest records with their derived class and
// price band.
func BuildSearchIndex(ctx context.Context, st store.Store) (SearchIndex, error) {
	index := SearchIndex{GeneratedAt: time.Now()}
	records, err := latestRecords(ctx, st)
	if err != nil {
		return index, err
	}
	for _, r := range records {
		index.Rows = append(index.Rows, SearchRow{
			Brand:        r.Brand,
			Model:        r.Model,
			Trim:         r.Trim,
			Engine:       r.Engine,
			Transmission: r.Transmission,
			Fuel:         r.Fuel,
			Class:        segment.Classify(r.Brand, r.Model),
			Band:         segment.PriceBand(r.Price),
			Price:        r.Price,
		})
	}
	return index, nil
}

// BuildStats precomputes per-brand and per-class price aggregates.
func BuildStats(ctx context.Context, st store.Store) (StatsArtifact, error) {
	stats := StatsArtifact{GeneratedAt: time.Now()}
	records, err := latestRecords(ctx, st)
	if err != nil {
		return stats, err
	}
	stats.Total = len(records)

	type agg struct {
		count int
		sum   int64
		min   int64
		max   int64
	}
	update := func(m map[string]*agg, key string, price int64) {
		a := m[key]
		if a == nil {
			a = &agg{min: price, max: price}
			m[key] = a
		}
		a.count++
		a.sum += price
		if price < a.min {
			a.min = price
		}
		if price > a.max {
			a.max = price
		}
	}

	brands := map[string]*agg{}
	classes := map[string]*agg{}
	for _, r := range records {
		update(brands, r.Brand, r.Price)
		update(classes, segment.Classify(r.Brand, r.Model), r.Price)
	}

	for _, name := range sortedAggKeys(brands) {
		a := brands[name]
		stats.Brands = append(stats.Brands, BrandStats{
			Brand: name, Count: a.count, Min: a.min, Max: a.max,
			Avg: float64(a.sum) / float64(a.count),
		})
	}
	for _, name := range sortedAggKeys(classes) {
		a := classes[name]
		stats.Classes = append(stats.Classes, ClassStats{
			Class: name, Count: a.count, Min: a.min, Max: a.max,
			Avg: float64(a.sum) / float64(a.count),
		})
	}
	return stats, nil
}

// BuildPromos surfaces records whose campaign price undercuts the list price.
func BuildPromos(ctx context.Context, st store.Store) (PromosArtifact, error) {
	artifact := PromosArtifact{GeneratedAt: time.Now()}
	records, err := latestRecords(ctx, st)
	if err != nil {
		return artifact, err
	}
	for _, r := range records {
		if r.CampaignPrice == 0 || r.CampaignPrice >= r.Price {
			continue
		}
		discount := r.Price - r.CampaignPrice
		artifact.Promos = append(artifact.Promos, Promo{
			Brand:         r.Brand,
			Model:         r.Model,
			Trim:          r.Trim,
			ListPrice:     r.Price,
			CampaignPrice: r.CampaignPrice,
			Discount:      discount,
			Percent:       float64(discount) / float64(r.Price) * 100,
		})
	}
	sort.Slice(artifact.Promos, func(i, j int) bool {
		return artifact.Promos[i].Percent > artifact.Promos[j].Percent
	})
	return artifact, nil
}

func sortedAggKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
