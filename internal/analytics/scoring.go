package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"car-intel/internal/models"
	"car-intel/internal/segment"
	"car-intel/internal/store"
)

// Statistical guards. Percentile rank is meaningless under three members;
// outlier flags need at least five to avoid singleton comparisons.
const (
	MinPercentileSegment = 3
	MinOutlierSegment    = 5
	OutlierZThreshold    = 2.0
)

// Outlier types.
const (
	OutlierCheap     = "cheap"
	OutlierExpensive = "expensive"
)

// SegmentStats describes one transient segment's price distribution.
type SegmentStats struct {
	Key    string  `json:"key"` // class|fuel|band
	Class  string  `json:"class"`
	Fuel   string  `json:"fuel"`
	Band   string  `json:"band"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
}

// VehicleScore is one vehicle's standing inside its segment.
type VehicleScore struct {
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Trim        string  `json:"trim"`
	Engine      string  `json:"engine,omitempty"`
	Price       int64   `json:"price"`
	SegmentKey  string  `json:"segment_key"`
	SegmentSize int     `json:"segment_size"`
	Z           float64 `json:"z"`
	Percentile  float64 `json:"percentile"`
	DealScore   float64 `json:"deal_score"`
	IsOutlier   bool    `json:"is_outlier"`
	OutlierType string  `json:"outlier_type,omitempty"`
}

// InsightsArtifact is the deal/outlier output of the scoring engine.
type InsightsArtifact struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	Segments          []SegmentStats `json:"segments"`
	Vehicles          []VehicleScore `json:"vehicles"`
	TopDeals          []VehicleScore `json:"top_deals"`
	CheapOutliers     []VehicleScore `json:"cheap_outliers"`
	ExpensiveOutliers []VehicleScore `json:"expensive_outliers"`
}

// BuildInsights groups every currently-latest record into vehicle class ×
// fuel × price band segments and scores each vehicle against its segment.
func BuildInsights(ctx context.Context, st store.Store, topN int) (InsightsArtifact, error) {
	artifact := InsightsArtifact{GeneratedAt: time.Now()}

	records, err := latestRecords(ctx, st)
	if err != nil {
		return artifact, err
	}

	groups := map[string][]models.PriceRecord{}
	for _, r := range records {
		class := segment.Classify(r.Brand, r.Model)
		key := segment.Key(class, r.Fuel, r.Price)
		groups[key] = append(groups[key], r)
	}

	stats := map[string]SegmentStats{}
	sortedPrices := map[string][]int64{}
	for key, members := range groups {
		prices := make([]int64, 0, len(members))
		for _, m := range members {
			prices = append(prices, m.Price)
		}
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
		sortedPrices[key] = prices

		class, fuel, band := splitSegmentKey(key)
		stats[key] = SegmentStats{
			Key:    key,
			Class:  class,
			Fuel:   fuel,
			Band:   band,
			Count:  len(prices),
			Mean:   mean(prices),
			StdDev: stdDevPop(prices),
			Min:    prices[0],
			Max:    prices[len(prices)-1],
		}
	}

	for key, members := range groups {
		s := stats[key]
		prices := sortedPrices[key]
		for _, m := range members {
			score := scoreVehicle(m, s, prices)
			artifact.Vehicles = append(artifact.Vehicles, score)
		}
	}

	for _, s := range stats {
		artifact.Segments = append(artifact.Segments, s)
	}
	sort.Slice(artifact.Segments, func(i, j int) bool {
		return artifact.Segments[i].Key < artifact.Segments[j].Key
	})
	sort.Slice(artifact.Vehicles, func(i, j int) bool {
		a, b := artifact.Vehicles[i], artifact.Vehicles[j]
		if a.SegmentKey != b.SegmentKey {
			return a.SegmentKey < b.SegmentKey
		}
		return a.Price < b.Price
	})

	artifact.TopDeals = topDeals(artifact.Vehicles, topN)
	artifact.CheapOutliers, artifact.ExpensiveOutliers = outliers(artifact.Vehicles, topN)
	return artifact, nil
}

// scoreVehicle computes z, percentile and deal score for one vehicle within
// its segment's sorted price list.
func scoreVehicle(r models.PriceRecord, s SegmentStats, prices []int64) VehicleScore {
	score := VehicleScore{
		Brand:       r.Brand,
		Model:       r.Model,
		Trim:        r.Trim,
		Engine:      r.Engine,
		Price:       r.Price,
		SegmentKey:  s.Key,
		SegmentSize: s.Count,
	}

	if s.StdDev != 0 {
		score.Z = (float64(r.Price) - s.Mean) / s.StdDev
	}

	if s.Count < MinPercentileSegment {
		// Rank is not statistically meaningful here; report neutral.
		score.Percentile = 50
		score.DealScore = clamp(50-25*score.Z, 0, 100)
	} else {
		rank := sort.Search(len(prices), func(i int) bool { return prices[i] >= r.Price })
		score.Percentile = (float64(rank) + 0.5) / float64(len(prices)) * 100
		score.DealScore = 100 - score.Percentile
	}

	// The flag tests the vehicle against the rest of its segment. Keeping
	// the candidate inside the baseline caps the population z at sqrt(n-1),
	// which would make a strict 2.0 threshold unreachable at the minimum
	// qualifying segment size.
	if s.Count >= MinOutlierSegment {
		if z := leaveOneOutZ(r.Price, prices); math.Abs(z) > OutlierZThreshold {
			score.IsOutlier = true
			if z < 0 {
				score.OutlierType = OutlierCheap
			} else {
				score.OutlierType = OutlierExpensive
			}
		}
	}
	return score
}

// leaveOneOutZ scores a price against its segment peers with one instance of
// the price removed. A zero-spread peer group makes any different price
// infinitely anomalous.
func leaveOneOutZ(price int64, prices []int64) float64 {
	rest := make([]int64, 0, len(prices)-1)
	removed := false
	for _, p := range prices {
		if !removed && p == price {
			removed = true
			continue
		}
		rest = append(rest, p)
	}
	if len(rest) == 0 {
		return 0
	}
	m := mean(rest)
	sd := stdDevPop(rest)
	if sd == 0 {
		switch {
		case float64(price) > m:
			return math.Inf(1)
		case float64(price) < m:
			return math.Inf(-1)
		default:
			return 0
		}
	}
	return (float64(price) - m) / sd
}

func topDeals(vehicles []VehicleScore, topN int) []VehicleScore {
	deals := append([]VehicleScore(nil), vehicles...)
	sort.Slice(deals, func(i, j int) bool { return deals[i].DealScore > deals[j].DealScore })
	if len(deals) > topN {
		deals = deals[:topN]
	}
	return deals
}

func outliers(vehicles []VehicleScore, topN int) (cheap, expensive []VehicleScore) {
	for _, v := range vehicles {
		if !v.IsOutlier {
			continue
		}
		if v.OutlierType == OutlierCheap {
			cheap = append(cheap, v)
		} else {
			expensive = append(expensive, v)
		}
	}
	sort.Slice(cheap, func(i, j int) bool { return cheap[i].Z < cheap[j].Z })
	sort.Slice(expensive, func(i, j int) bool { return expensive[i].Z > expensive[j].Z })
	if len(cheap) > topN {
		cheap = cheap[:topN]
	}
	if len(expensive) > topN {
		expensive = expensive[:topN]
	}
	return cheap, expensive
}

func splitSegmentKey(key string) (class, fuel, band string) {
	parts := strings.SplitN(key, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

func mean(prices []int64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += float64(p)
	}
	return sum / float64(len(prices))
}

// stdDevPop is the population standard deviation.
func stdDevPop(prices []int64) float64 {
	if len(prices) == 0 {
		return 0
	}
	m := mean(prices)
	sum := 0.0
	for _, p := range prices {
		d := float64(p) - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(prices)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
