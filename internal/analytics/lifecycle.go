package analytics

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"time"

	"car-intel/internal/config"
	"car-intel/internal/models"
	"car-intel/internal/store"
)

var yearToken = regexp.MustCompile(`\b(20\d{2})\b`)

// YearTransition records a model sold as two model years at once (the
// old-to-new handover window) and the entry-price jump between them.
type YearTransition struct {
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Date          string  `json:"date"`
	OldYear       int     `json:"old_year"`
	NewYear       int     `json:"new_year"`
	OldEntryPrice int64   `json:"old_entry_price"`
	NewEntryPrice int64   `json:"new_entry_price"`
	Delta         int64   `json:"delta"`
	Percent       float64 `json:"percent"`
}

// EntryDrift tracks a model's entry price across a multi-day window.
type EntryDrift struct {
	Brand      string  `json:"brand"`
	Model      string  `json:"model"`
	FromDate   string  `json:"from_date"`
	ToDate     string  `json:"to_date"`
	WindowDays int     `json:"window_days"`
	OldEntry   int64   `json:"old_entry"`
	NewEntry   int64   `json:"new_entry"`
	Delta      int64   `json:"delta"`
	Percent    float64 `json:"percent"`
}

// StaleBrand flags a brand whose newest snapshot is older than the
// staleness threshold.
type StaleBrand struct {
	Brand      string `json:"brand"`
	LatestDate string `json:"latest_date"`
	AgeDays    int    `json:"age_days"`
}

// LifecycleArtifact is the model-year and freshness view of the market.
type LifecycleArtifact struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Transitions []YearTransition `json:"transitions"`
	Drifts      []EntryDrift     `json:"drifts"`
	StaleBrands []StaleBrand     `json:"stale_brands"`
}

// BuildLifecycle derives year transitions from the latest snapshots, entry
// price drift across the configured window, and per-brand staleness as of
// the given time.
func BuildLifecycle(ctx context.Context, st store.Store, cfg config.LifecycleConfig, asOf time.Time) (LifecycleArtifact, error) {
	artifact := LifecycleArtifact{GeneratedAt: asOf}

	idx, err := st.Index(ctx)
	if err != nil {
		return artifact, err
	}

	for _, entry := range idx.Brands {
		latest, err := st.ReadLatest(ctx, entry.Name)
		if err != nil {
			continue
		}
		artifact.Transitions = append(artifact.Transitions, yearTransitions(latest)...)
		artifact.Drifts = append(artifact.Drifts, entryDrift(ctx, st, latest, entry.Dates, cfg.DriftWindowDays)...)

		if stale := staleness(entry, asOf, cfg.StaleAfterDays); stale != nil {
			artifact.StaleBrands = append(artifact.StaleBrands, *stale)
		}
	}
	return artifact, nil
}

// recordYear prefers the vendor-published model year and falls back to a
// year token embedded in the trim name.
func recordYear(r models.PriceRecord) int {
	if r.ModelYear != 0 {
		return r.ModelYear
	}
	if m := yearToken.FindString(r.Trim); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

// yearTransitions finds models whose one snapshot carries multiple model
// years and treats the lowest→highest pair as the active transition.
func yearTransitions(snap models.Snapshot) []YearTransition {
	type yearEntry map[int]int64 // year -> entry price
	byModel := map[string]yearEntry{}

	for _, r := range snap.Records {
		year := recordYear(r)
		if year == 0 {
			continue
		}
		entries := byModel[r.Model]
		if entries == nil {
			entries = yearEntry{}
			byModel[r.Model] = entries
		}
		if cur, ok := entries[year]; !ok || r.Price < cur {
			entries[year] = r.Price
		}
	}

	var out []YearTransition
	for model, entries := range byModel {
		if len(entries) < 2 {
			continue
		}
		years := make([]int, 0, len(entries))
		for y := range entries {
			years = append(years, y)
		}
		sort.Ints(years)
		oldYear, newYear := years[0], years[len(years)-1]
		oldEntry, newEntry := entries[oldYear], entries[newYear]
		out = append(out, YearTransition{
			Brand:         snap.Brand,
			Model:         model,
			Date:          snap.Date,
			OldYear:       oldYear,
			NewYear:       newYear,
			OldEntryPrice: oldEntry,
			NewEntryPrice: newEntry,
			Delta:         newEntry - oldEntry,
			Percent:       float64(newEntry-oldEntry) / float64(oldEntry) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// entryDrift compares each model's entry price in the latest snapshot with
// the nearest snapshot at least windowDays older.
func entryDrift(ctx context.Context, st store.Store, latest models.Snapshot, datesDesc []string, windowDays int) []EntryDrift {
	latestDay, err := time.Parse(models.DateLayout, latest.Date)
	if err != nil {
		return nil
	}
	var baseline models.Snapshot
	found := false
	for _, d := range datesDesc { // descending: first hit is the nearest
		day, err := time.Parse(models.DateLayout, d)
		if err != nil {
			continue
		}
		if latestDay.Sub(day) >= time.Duration(windowDays)*24*time.Hour {
			snap, err := st.Read(ctx, latest.Brand, d)
			if err != nil {
				continue
			}
			baseline = snap
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	oldEntries := modelEntryPrices(baseline)
	newEntries := modelEntryPrices(latest)

	var out []EntryDrift
	for model, newEntry := range newEntries {
		oldEntry, ok := oldEntries[model]
		if !ok || oldEntry == newEntry {
			continue
		}
		out = append(out, EntryDrift{
			Brand:      latest.Brand,
			Model:      model,
			FromDate:   baseline.Date,
			ToDate:     latest.Date,
			WindowDays: windowDays,
			OldEntry:   oldEntry,
			NewEntry:   newEntry,
			Delta:      newEntry - oldEntry,
			Percent:    float64(newEntry-oldEntry) / float64(oldEntry) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

func modelEntryPrices(snap models.Snapshot) map[string]int64 {
	entries := map[string]int64{}
	for _, r := range snap.Records {
		if cur, ok := entries[r.Model]; !ok || r.Price < cur {
			entries[r.Model] = r.Price
		}
	}
	return entries
}

func staleness(entry models.BrandIndexEntry, asOf time.Time, staleAfterDays int) *StaleBrand {
	if entry.LatestDate == "" {
		return nil
	}
	latest, err := time.Parse(models.DateLayout, entry.LatestDate)
	if err != nil {
		return nil
	}
	age := int(asOf.Sub(latest).Hours() / 24)
	if age < staleAfterDays {
		return nil
	}
	return &StaleBrand{Brand: entry.Name, LatestDate: entry.LatestDate, AgeDays: age}
}
