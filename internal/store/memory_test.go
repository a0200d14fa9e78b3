package store

import (
	"context"
	"testing"
	"time"

	"car-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	records := []models.PriceRecord{
		{Brand: "fiat", Model: "Egea", Trim: "Street", Price: 1_400_000},
		{Brand: "fiat", Model: "Egea", Trim: "Urban", Price: 1_550_000},
	}
	snap := models.Snapshot{
		Brand:       "fiat",
		Date:        "2026-08-28",
		CollectedAt: time.Now(),
		Records:     records,
	}
	require.NoError(t, st.Write(ctx, snap))

	got, err := st.Read(ctx, "fiat", "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, records, got.Records)
	assert.Equal(t, 2, got.RowCount)
}

func TestMemoryStoreOverwriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	first := models.Snapshot{Brand: "fiat", Date: "2026-08-28", Records: []models.PriceRecord{
		{Model: "Egea", Trim: "Street", Price: 1_400_000},
	}}
	second := models.Snapshot{Brand: "fiat", Date: "2026-08-28", Records: []models.PriceRecord{
		{Model: "Egea", Trim: "Street", Price: 1_450_000},
	}}
	require.NoError(t, st.Write(ctx, first))
	require.NoError(t, st.Write(ctx, second))

	got, err := st.Read(ctx, "fiat", "2026-08-28")
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, int64(1_450_000), got.Records[0].Price)

	dates, err := st.ListDates(ctx, "fiat")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-28"}, dates)
}

func TestMemoryStoreListDatesDescending(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	for _, d := range []string{"2026-08-26", "2026-08-28", "2026-08-27"} {
		require.NoError(t, st.Write(ctx, models.Snapshot{Brand: "fiat", Date: d}))
	}
	dates, err := st.ListDates(ctx, "fiat")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-28", "2026-08-27", "2026-08-26"}, dates)

	latest, err := st.ReadLatest(ctx, "fiat")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", latest.Date)
}

func TestMemoryStoreIndex(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Write(ctx, models.Snapshot{Brand: "fiat", Date: "2026-08-27", Records: []models.PriceRecord{{Price: 1}}}))
	require.NoError(t, st.Write(ctx, models.Snapshot{Brand: "fiat", Date: "2026-08-28", Records: []models.PriceRecord{{Price: 1}, {Price: 2}}}))
	require.NoError(t, st.Write(ctx, models.Snapshot{Brand: "toyota", Date: "2026-08-28"}))

	idx, err := st.Index(ctx)
	require.NoError(t, err)
	require.Len(t, idx.Brands, 2)

	fiat := idx.Entry("fiat")
	require.NotNil(t, fiat)
	assert.Equal(t, "2026-08-28", fiat.LatestDate)
	assert.Equal(t, []string{"2026-08-28", "2026-08-27"}, fiat.Dates)
	assert.Equal(t, 3, fiat.TotalRecords)
}

func TestMemoryStoreReadMissing(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_, err := st.Read(ctx, "fiat", "2026-08-28")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.ReadLatest(ctx, "fiat")
	assert.ErrorIs(t, err, ErrNotFound)
}
