package store

import (
	"testing"

	"car-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexOf(brands ...string) models.BrandIndex {
	idx := models.BrandIndex{}
	for _, b := range brands {
		idx.Brands = append(idx.Brands, models.BrandIndexEntry{
			Name: b, Dates: []string{"2026-08-28"}, LatestDate: "2026-08-28",
		})
	}
	return idx
}

func TestIndexCacheInvalidateForcesReload(t *testing.T) {
	var c indexCache

	_, ok := c.get()
	assert.False(t, ok, "cold cache must miss")

	c.set(indexOf("toyota"))
	idx, ok := c.get()
	require.True(t, ok)
	require.Len(t, idx.Brands, 1)

	c.invalidate()
	_, ok = c.get()
	assert.False(t, ok, "invalidated cache must miss so the caller reloads")
}

func TestIndexCacheRefreshEntryReplacesBrand(t *testing.T) {
	var c indexCache
	c.set(indexOf("fiat", "toyota"))

	updated := models.BrandIndexEntry{
		Name:         "fiat",
		Dates:        []string{"2026-08-29", "2026-08-28"},
		LatestDate:   "2026-08-29",
		TotalRecords: 4,
	}
	require.True(t, c.refreshEntry(updated))

	idx, ok := c.get()
	require.True(t, ok)
	require.Len(t, idx.Brands, 2)
	assert.Equal(t, "2026-08-29", idx.Brands[0].LatestDate)
	assert.Equal(t, 4, idx.Brands[0].TotalRecords)
}

func TestIndexCacheRefreshEntryInsertsSorted(t *testing.T) {
	var c indexCache
	c.set(indexOf("fiat", "toyota"))

	require.True(t, c.refreshEntry(models.BrandIndexEntry{Name: "renault", LatestDate: "2026-08-28"}))

	idx, ok := c.get()
	require.True(t, ok)
	require.Len(t, idx.Brands, 3)
	assert.Equal(t, "fiat", idx.Brands[0].Name)
	assert.Equal(t, "renault", idx.Brands[1].Name)
	assert.Equal(t, "toyota", idx.Brands[2].Name)
}

func TestIndexCacheRefreshEntryStaysCold(t *testing.T) {
	var c indexCache
	assert.False(t, c.refreshEntry(models.BrandIndexEntry{Name: "fiat"}))
	_, ok := c.get()
	assert.False(t, ok)
}
