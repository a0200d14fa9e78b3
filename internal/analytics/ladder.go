package analytics

import (
	"context"
	"sort"
	"time"

	"car-intel/internal/models"
	"car-intel/internal/segment"
	"car-intel/internal/store"
)

// TrimStep is one rung of a model's price ladder.
type TrimStep struct {
	Trim        string  `json:"trim"`
	Engine      string  `json:"engine,omitempty"`
	Price       int64   `json:"price"`
	StepAbs     int64   `json:"step_abs"`     // above the base trim
	StepPercent float64 `json:"step_percent"` // above the base trim
}

// Ladder is one (brand, model)'s upsell curve in the latest snapshot.
type Ladder struct {
	Brand     string     `json:"brand"`
	Model     string     `json:"model"`
	Class     string     `json:"class"`
	BasePrice int64      `json:"base_price"`
	TopPrice  int64      `json:"top_price"`
	Trims     []TrimStep `json:"trims"`
}

// ClassComparison compares ladders across brands within one vehicle class.
// Only classes with at least two distinct models qualify; a single model is
// not a comparison.
type ClassComparison struct {
	Class   string   `json:"class"`
	Models  int      `json:"models"`
	Brands  []string `json:"brands"`
	AvgBase float64  `json:"avg_base"`
	AvgTop  float64  `json:"avg_top"`
}

// LadderArtifact holds every model's trim ladder plus the cross-brand view.
type LadderArtifact struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Ladders     []Ladder          `json:"ladders"`
	Comparisons []ClassComparison `json:"comparisons"`
}

// BuildLadders sorts every (brand, model)'s trims by ascending price and
// derives each trim's step above the base.
func BuildLadders(ctx context.Context, st store.Store) (LadderArtifact, error) {
	artifact := LadderArtifact{GeneratedAt: time.Now()}

	records, err := latestRecords(ctx, st)
	if err != nil {
		return artifact, err
	}

	byModel := map[[2]string][]models.PriceRecord{}
	for _, r := range records {
		key := [2]string{r.Brand, r.Model}
		byModel[key] = append(byModel[key], r)
	}

	for key, recs := range byModel {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Price < recs[j].Price })
		base := recs[0].Price
		ladder := Ladder{
			Brand:     key[0],
			Model:     key[1],
			Class:     segment.Classify(key[0], key[1]),
			BasePrice: base,
			TopPrice:  recs[len(recs)-1].Price,
		}
		for _, r := range recs {
			step := r.Price - base
			ladder.Trims = append(ladder.Trims, TrimStep{
				Trim:        r.Trim,
				Engine:      r.Engine,
				Price:       r.Price,
				StepAbs:     step,
				StepPercent: float64(step) / float64(base) * 100,
			})
		}
		artifact.Ladders = append(artifact.Ladders, ladder)
	}
	sort.Slice(artifact.Ladders, func(i, j int) bool {
		a, b := artifact.Ladders[i], artifact.Ladders[j]
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		return a.Model < b.Model
	})

	artifact.Comparisons = compareClasses(artifact.Ladders)
	return artifact, nil
}

func compareClasses(ladders []Ladder) []ClassComparison {
	type agg struct {
		models  int
		brands  map[string]bool
		sumBase int64
		sumTop  int64
	}
	byClass := map[string]*agg{}
	for _, l := range ladders {
		a := byClass[l.Class]
		if a == nil {
			a = &agg{brands: map[string]bool{}}
			byClass[l.Class] = a
		}
		a.models++
		a.brands[l.Brand] = true
		a.sumBase += l.BasePrice
		a.sumTop += l.TopPrice
	}

	var out []ClassComparison
	for class, a := range byClass {
		if a.models < 2 {
			continue
		}
		out = append(out, ClassComparison{
			Class:   class,
			Models:  a.models,
			Brands:  sortedKeys(a.brands),
			AvgBase: float64(a.sumBase) / float64(a.models),
			AvgTop:  float64(a.sumTop) / float64(a.models),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}
