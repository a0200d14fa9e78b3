package analytics

import (
	"context"
	"sort"
	"time"

	"car-intel/internal/config"
	"car-intel/internal/segment"
	"car-intel/internal/store"
)

// GapCell is one cell of the 4-dimensional occupancy grid.
type GapCell struct {
	Class        string   `json:"class"`
	Fuel         string   `json:"fuel"`
	Transmission string   `json:"transmission"`
	Band         string   `json:"band"`
	Count        int      `json:"count"`
	Brands       []string `json:"brands,omitempty"`
	AvgPrice     float64  `json:"avg_price,omitempty"`

	// HasGap marks cells with no meaningful competitive choice (count < 2).
	HasGap bool `json:"has_gap"`

	// OpportunityScore is a heuristic blend of the configured weights and
	// priors, computed for gap cells only. It is a ranking, not an estimate.
	OpportunityScore float64 `json:"opportunity_score,omitempty"`
}

// GapsArtifact maps under-served corners of the market.
type GapsArtifact struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Cells            []GapCell `json:"cells"`
	TopOpportunities []GapCell `json:"top_opportunities"`
}

// BuildGaps builds the occupancy grid over vehicle class × fuel ×
// transmission × price band and scores the gap cells. The grid spans every
// observed class, fuel and transmission against all price bands, so empty
// cells inside the observed market surface as gaps too.
func BuildGaps(ctx context.Context, st store.Store, cfg config.GapConfig, topN int) (GapsArtifact, error) {
	artifact := GapsArtifact{GeneratedAt: time.Now()}

	records, err := latestRecords(ctx, st)
	if err != nil {
		return artifact, err
	}
	if len(records) == 0 {
		return artifact, nil
	}

	type cellAgg struct {
		count  int
		sum    int64
		brands map[string]bool
	}
	cells := map[[4]string]*cellAgg{}
	classes := map[string]bool{}
	fuels := map[string]bool{}
	transmissions := map[string]bool{}
	classCounts := map[string]int{}

	for _, r := range records {
		class := segment.Classify(r.Brand, r.Model)
		band := segment.PriceBand(r.Price)
		classes[class] = true
		fuels[r.Fuel] = true
		transmissions[r.Transmission] = true
		classCounts[class]++

		key := [4]string{class, r.Fuel, r.Transmission, band}
		agg := cells[key]
		if agg == nil {
			agg = &cellAgg{brands: map[string]bool{}}
			cells[key] = agg
		}
		agg.count++
		agg.sum += r.Price
		agg.brands[r.Brand] = true
	}

	total := len(records)
	for _, class := range sortedKeys(classes) {
		for _, fuel := range sortedKeys(fuels) {
			for _, trans := range sortedKeys(transmissions) {
				for _, band := range segment.BandLabels() {
					cell := GapCell{Class: class, Fuel: fuel, Transmission: trans, Band: band}
					if agg := cells[[4]string{class, fuel, trans, band}]; agg != nil {
						cell.Count = agg.count
						cell.AvgPrice = float64(agg.sum) / float64(agg.count)
						cell.Brands = sortedKeys(agg.brands)
					}
					cell.HasGap = cell.Count < 2
					if cell.HasGap {
						share := float64(classCounts[class]) / float64(total)
						cell.OpportunityScore = cfg.WeightSegmentShare*share +
							cfg.WeightFuel*cfg.FuelPriors[fuel] +
							cfg.WeightTransmission*cfg.TransmissionPriors[trans] +
							cfg.WeightPriceBand*cfg.BandPriors[band]
					}
					artifact.Cells = append(artifact.Cells, cell)
				}
			}
		}
	}

	for _, cell := range artifact.Cells {
		if cell.HasGap {
			artifact.TopOpportunities = append(artifact.TopOpportunities, cell)
		}
	}
	sort.SliceStable(artifact.TopOpportunities, func(i, j int) bool {
		return artifact.TopOpportunities[i].OpportunityScore > artifact.TopOpportunities[j].OpportunityScore
	})
	if len(artifact.TopOpportunities) > topN {
		artifact.TopOpportunities = artifact.TopOpportunities[:topN]
	}
	return artifact, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
