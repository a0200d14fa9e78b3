// Package analytics derives market-intelligence artifacts from the snapshot
// store. Every generator is a pure function of the store's current contents;
// they hold no state and may run in any order.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"car-intel/internal/models"
	"car-intel/internal/store"
)

// VolatilityRollup aggregates change activity for one brand or one model.
type VolatilityRollup struct {
	Key            string  `json:"key"` // brand, or brand|model
	Changes        int     `json:"changes"`
	Increases      int     `json:"increases"`
	Decreases      int     `json:"decreases"`
	New            int     `json:"new"`
	Removed        int     `json:"removed"`
	MeanAbsDelta   float64 `json:"mean_abs_delta"`
	MeanAbsPercent float64 `json:"mean_abs_percent"`
}

// EventsArtifact is the unioned change log across every brand's history plus
// its volatility rollups and biggest movers.
type EventsArtifact struct {
	GeneratedAt     time.Time            `json:"generated_at"`
	Events          []models.ChangeEvent `json:"events"`
	BrandVolatility []VolatilityRollup   `json:"brand_volatility"`
	ModelVolatility []VolatilityRollup   `json:"model_volatility"`
	TopIncreases    []models.ChangeEvent `json:"top_increases"`
	TopDecreases    []models.ChangeEvent `json:"top_decreases"`
}

// BuildEvents diffs every chronologically consecutive snapshot pair of every
// brand, the full history rather than just the newest pair, and unions the
// events into one longitudinal log.
func BuildEvents(ctx context.Context, st store.Store, topN int) (EventsArtifact, error) {
	artifact := EventsArtifact{GeneratedAt: time.Now()}

	idx, err := st.Index(ctx)
	if err != nil {
		return artifact, err
	}
	for _, entry := range idx.Brands {
		dates := append([]string(nil), entry.Dates...)
		sort.Strings(dates) // ascending for pairwise walks
		for i := 0; i+1 < len(dates); i++ {
			earlier, err := st.Read(ctx, entry.Name, dates[i])
			if err != nil {
				continue
			}
			later, err := st.Read(ctx, entry.Name, dates[i+1])
			if err != nil {
				continue
			}
			artifact.Events = append(artifact.Events, DiffSnapshots(earlier, later)...)
		}
	}

	artifact.BrandVolatility = rollupVolatility(artifact.Events, func(e models.ChangeEvent) string {
		return e.Brand
	})
	artifact.ModelVolatility = rollupVolatility(artifact.Events, func(e models.ChangeEvent) string {
		return e.Brand + "|" + e.Model
	})
	artifact.TopIncreases, artifact.TopDecreases = bigMovers(artifact.Events, topN)
	return artifact, nil
}

// DiffSnapshots computes the change events between two chronologically
// adjacent snapshots of one brand.
func DiffSnapshots(earlier, later models.Snapshot) []models.ChangeEvent {
	fromFallback := earlier.IsFallback || later.IsFallback

	prev := map[string]models.PriceRecord{}
	for _, r := range earlier.Records {
		prev[r.IdentityKey()] = r
	}
	next := map[string]models.PriceRecord{}
	for _, r := range later.Records {
		next[r.IdentityKey()] = r
	}

	// Duplicate identity keys inside one snapshot collapse last-wins in the
	// maps; each key is diffed exactly once, in record order.
	var events []models.ChangeEvent
	seenNext := map[string]bool{}
	for _, r := range later.Records {
		key := r.IdentityKey()
		if seenNext[key] {
			continue
		}
		seenNext[key] = true
		rec := next[key]
		old, existed := prev[key]
		if !existed {
			events = append(events, models.ChangeEvent{
				Type: models.EventNew, Brand: later.Brand, Key: key,
				Model: rec.Model, Trim: rec.Trim, Engine: rec.Engine,
				Date: later.Date, PrevDate: earlier.Date,
				NewPrice: rec.Price, FromFallback: fromFallback,
			})
			continue
		}
		if old.Price == rec.Price {
			continue
		}
		delta := rec.Price - old.Price
		evType := models.EventPriceIncrease
		if delta < 0 {
			evType = models.EventPriceDecrease
		}
		events = append(events, models.ChangeEvent{
			Type: evType, Brand: later.Brand, Key: key,
			Model: rec.Model, Trim: rec.Trim, Engine: rec.Engine,
			Date: later.Date, PrevDate: earlier.Date,
			OldPrice: old.Price, NewPrice: rec.Price, Delta: delta,
			Percent:      float64(delta) / float64(old.Price) * 100,
			FromFallback: fromFallback,
		})
	}
	seenPrev := map[string]bool{}
	for _, r := range earlier.Records {
		key := r.IdentityKey()
		if seenPrev[key] {
			continue
		}
		seenPrev[key] = true
		if _, stillThere := next[key]; stillThere {
			continue
		}
		rec := prev[key]
		events = append(events, models.ChangeEvent{
			Type: models.EventRemoved, Brand: later.Brand, Key: key,
			Model: rec.Model, Trim: rec.Trim, Engine: rec.Engine,
			Date: later.Date, PrevDate: earlier.Date,
			OldPrice: rec.Price, FromFallback: fromFallback,
		})
	}
	return events
}

func rollupVolatility(events []models.ChangeEvent, keyFn func(models.ChangeEvent) string) []VolatilityRollup {
	byKey := map[string]*VolatilityRollup{}
	sumDelta := map[string]float64{}
	sumPercent := map[string]float64{}
	priceEvents := map[string]int{}

	for _, e := range events {
		key := keyFn(e)
		r := byKey[key]
		if r == nil {
			r = &VolatilityRollup{Key: key}
			byKey[key] = r
		}
		r.Changes++
		switch e.Type {
		case models.EventPriceIncrease:
			r.Increases++
		case models.EventPriceDecrease:
			r.Decreases++
		case models.EventNew:
			r.New++
		case models.EventRemoved:
			r.Removed++
		}
		if e.Type == models.EventPriceIncrease || e.Type == models.EventPriceDecrease {
			sumDelta[key] += math.Abs(float64(e.Delta))
			sumPercent[key] += math.Abs(e.Percent)
			priceEvents[key]++
		}
	}

	out := make([]VolatilityRollup, 0, len(byKey))
	for key, r := range byKey {
		if n := priceEvents[key]; n > 0 {
			r.MeanAbsDelta = sumDelta[key] / float64(n)
			r.MeanAbsPercent = sumPercent[key] / float64(n)
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// bigMovers ranks strictly by percent change in each direction. Ranking by
// absolute currency amount would surface only already-expensive vehicles.
func bigMovers(events []models.ChangeEvent, topN int) (increases, decreases []models.ChangeEvent) {
	for _, e := range events {
		switch e.Type {
		case models.EventPriceIncrease:
			increases = append(increases, e)
		case models.EventPriceDecrease:
			decreases = append(decreases, e)
		}
	}
	sort.Slice(increases, func(i, j int) bool { return increases[i].Percent > increases[j].Percent })
	sort.Slice(decreases, func(i, j int) bool { return decreases[i].Percent < decreases[j].Percent })
	if len(increases) > topN {
		increases = increases[:topN]
	}
	if len(decreases) > topN {
		decreases = decreases[:topN]
	}
	return increases, decreases
}
