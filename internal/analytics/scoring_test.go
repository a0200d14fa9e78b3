package analytics

import (
	"context"
	"testing"

	"car-intel/internal/models"
	"car-intel/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLatest stores one snapshot per brand so every record lands in the
// scoring engine's "currently latest" view.
func writeLatest(t *testing.T, st store.Store, records ...models.PriceRecord) {
	t.Helper()
	byBrand := map[string][]models.PriceRecord{}
	for _, r := range records {
		byBrand[r.Brand] = append(byBrand[r.Brand], r)
	}
	for brand, recs := range byBrand {
		require.NoError(t, st.Write(context.Background(), models.Snapshot{
			Brand: brand, Date: "2026-08-28", Records: recs,
		}))
	}
}

// suvHybrid builds records that all classify into one segment:
// suv × hybrid × 1M-1.5M unless the price says otherwise.
func suvHybrid(brand, trim string, price int64) models.PriceRecord {
	return models.PriceRecord{
		Brand: brand, Model: "Frontier SUV", Trim: trim,
		Fuel: models.FuelHybrid, Transmission: models.TransmissionAutomatic,
		Price: price,
	}
}

func TestTwoMemberSegmentNeverFlagsOutliers(t *testing.T) {
	st := store.NewMemoryStore()
	// Extreme spread, but only two members.
	writeLatest(t, st,
		suvHybrid("alpha", "Base", 1_000_000),
		suvHybrid("beta", "Top", 1_490_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)
	require.Len(t, artifact.Vehicles, 2)
	for _, v := range artifact.Vehicles {
		assert.False(t, v.IsOutlier, "trim=%s", v.Trim)
	}
	assert.Empty(t, artifact.CheapOutliers)
	assert.Empty(t, artifact.ExpensiveOutliers)
}

func TestSmallSegmentReportsNeutralPercentile(t *testing.T) {
	st := store.NewMemoryStore()
	writeLatest(t, st,
		suvHybrid("alpha", "Base", 1_000_000),
		suvHybrid("beta", "Top", 1_490_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)
	for _, v := range artifact.Vehicles {
		assert.Equal(t, 50.0, v.Percentile, "trim=%s", v.Trim)
	}
}

func TestFiveMemberSegmentFlagsTheExpensiveOutlier(t *testing.T) {
	st := store.NewMemoryStore()
	// Five members of one segment (all prices inside the 3M-5M band), four
	// clustered tightly and one far above them.
	writeLatest(t, st,
		suvHybrid("alpha", "A", 3_000_000),
		suvHybrid("alpha", "B", 3_100_000),
		suvHybrid("alpha", "C", 3_200_000),
		suvHybrid("beta", "D", 3_300_000),
		suvHybrid("beta", "E", 4_900_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)
	require.Len(t, artifact.Vehicles, 5)

	flagged := 0
	for _, v := range artifact.Vehicles {
		if v.IsOutlier {
			flagged++
			assert.Equal(t, OutlierExpensive, v.OutlierType)
			assert.Equal(t, int64(4_900_000), v.Price)
		}
	}
	assert.Equal(t, 1, flagged)
	require.Len(t, artifact.ExpensiveOutliers, 1)
	assert.Empty(t, artifact.CheapOutliers)
}

func TestPercentileContinuityCorrection(t *testing.T) {
	st := store.NewMemoryStore()
	writeLatest(t, st,
		suvHybrid("alpha", "A", 3_000_000),
		suvHybrid("alpha", "B", 3_100_000),
		suvHybrid("alpha", "C", 3_200_000),
		suvHybrid("beta", "D", 3_300_000),
		suvHybrid("beta", "E", 4_900_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)

	byTrim := map[string]VehicleScore{}
	for _, v := range artifact.Vehicles {
		byTrim[v.Trim] = v
	}
	// rank 0 of 5 -> (0+0.5)/5 = 10%; rank 4 of 5 -> (4+0.5)/5 = 90%.
	assert.InDelta(t, 10.0, byTrim["A"].Percentile, 0.001)
	assert.InDelta(t, 90.0, byTrim["E"].Percentile, 0.001)
	// Deal score mirrors percentile: cheaper means higher.
	assert.InDelta(t, 90.0, byTrim["A"].DealScore, 0.001)
	assert.InDelta(t, 10.0, byTrim["E"].DealScore, 0.001)
}

func TestSmallSegmentDealScoreFallsBackToZ(t *testing.T) {
	st := store.NewMemoryStore()
	writeLatest(t, st,
		suvHybrid("alpha", "Base", 1_000_000),
		suvHybrid("beta", "Top", 1_400_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)

	byTrim := map[string]VehicleScore{}
	for _, v := range artifact.Vehicles {
		byTrim[v.Trim] = v
	}
	// Two symmetric members: z = -1 and +1, so scores 75 and 25.
	assert.InDelta(t, 75.0, byTrim["Base"].DealScore, 0.001)
	assert.InDelta(t, 25.0, byTrim["Top"].DealScore, 0.001)
	assert.InDelta(t, -1.0, byTrim["Base"].Z, 0.001)
	assert.InDelta(t, 1.0, byTrim["Top"].Z, 0.001)
}

func TestZeroSpreadSegmentScoresZero(t *testing.T) {
	st := store.NewMemoryStore()
	writeLatest(t, st,
		suvHybrid("alpha", "A", 1_200_000),
		suvHybrid("beta", "B", 1_200_000),
	)

	artifact, err := BuildInsights(context.Background(), st, 10)
	require.NoError(t, err)
	for _, v := range artifact.Vehicles {
		assert.Equal(t, 0.0, v.Z)
	}
}
