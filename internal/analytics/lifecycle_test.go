package analytics

import (
	"context"
	"testing"
	"time"

	"car-intel/internal/config"
	"car-intel/internal/models"
	"car-intel/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lifecycleConfig() config.LifecycleConfig {
	return config.LifecycleConfig{DriftWindowDays: 7, StaleAfterDays: 14}
}

func TestYearTransitionFromTrimTokens(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-28",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "2025 Street", Price: 1_400_000},
			{Brand: "fiat", Model: "Egea", Trim: "2025 Lounge", Price: 1_600_000},
			{Brand: "fiat", Model: "Egea", Trim: "2026 Street", Price: 1_550_000},
		},
	}))

	asOf, _ := time.Parse(models.DateLayout, "2026-08-28")
	artifact, err := BuildLifecycle(ctx, st, lifecycleConfig(), asOf)
	require.NoError(t, err)
	require.Len(t, artifact.Transitions, 1)

	tr := artifact.Transitions[0]
	assert.Equal(t, 2025, tr.OldYear)
	assert.Equal(t, 2026, tr.NewYear)
	assert.Equal(t, int64(1_400_000), tr.OldEntryPrice)
	assert.Equal(t, int64(1_550_000), tr.NewEntryPrice)
	assert.Equal(t, int64(150_000), tr.Delta)
	assert.InDelta(t, 10.714, tr.Percent, 0.01)
}

func TestSingleYearProducesNoTransition(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-28",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "2026 Street", Price: 1_550_000},
			{Brand: "fiat", Model: "Egea", Trim: "2026 Lounge", Price: 1_700_000},
		},
	}))

	asOf, _ := time.Parse(models.DateLayout, "2026-08-28")
	artifact, err := BuildLifecycle(ctx, st, lifecycleConfig(), asOf)
	require.NoError(t, err)
	assert.Empty(t, artifact.Transitions)
}

func TestEntryPriceDriftUsesWindow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	// Nine days apart, with a nearer snapshot inside the window that must
	// not be picked as the baseline.
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-19",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_400_000},
		},
	}))
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-25",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_480_000},
		},
	}))
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-28",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_500_000},
		},
	}))

	asOf, _ := time.Parse(models.DateLayout, "2026-08-28")
	artifact, err := BuildLifecycle(ctx, st, lifecycleConfig(), asOf)
	require.NoError(t, err)
	require.Len(t, artifact.Drifts, 1)

	d := artifact.Drifts[0]
	assert.Equal(t, "2026-08-19", d.FromDate)
	assert.Equal(t, "2026-08-28", d.ToDate)
	assert.Equal(t, int64(100_000), d.Delta)
	assert.InDelta(t, 7.142, d.Percent, 0.01)
}

func TestStaleBrandFlagging(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "fiat", Date: "2026-08-01",
		Records: []models.PriceRecord{
			{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_400_000},
		},
	}))
	require.NoError(t, st.Write(ctx, models.Snapshot{
		Brand: "toyota", Date: "2026-08-27",
		Records: []models.PriceRecord{
			{Brand: "toyota", Model: "Corolla", Trim: "Vision", Price: 1_800_000},
		},
	}))

	asOf, _ := time.Parse(models.DateLayout, "2026-08-28")
	artifact, err := BuildLifecycle(ctx, st, lifecycleConfig(), asOf)
	require.NoError(t, err)
	require.Len(t, artifact.StaleBrands, 1)
	assert.Equal(t, "fiat", artifact.StaleBrands[0].Brand)
	assert.Equal(t, 27, artifact.StaleBrands[0].AgeDays)
}
