package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"car-intel/internal/models"
)

// MemoryStore is a map-backed Store used in tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]map[string]models.Snapshot // brand -> date -> snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: map[string]map[string]models.Snapshot{}}
}

func (s *MemoryStore) Write(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDate := s.snaps[snap.Brand]
	if byDate == nil {
		byDate = map[string]models.Snapshot{}
		s.snaps[snap.Brand] = byDate
	}
	snap.RowCount = len(snap.Records)
	snap.Records = append([]models.PriceRecord(nil), snap.Records...)
	byDate[snap.Date] = snap
	return nil
}

func (s *MemoryStore) Read(_ context.Context, brand, date string) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[brand][date]
	if !ok {
		return models.Snapshot{}, ErrNotFound
	}
	snap.Records = append([]models.PriceRecord(nil), snap.Records...)
	return snap, nil
}

func (s *MemoryStore) ReadLatest(ctx context.Context, brand string) (models.Snapshot, error) {
	dates, _ := s.ListDates(ctx, brand)
	if len(dates) == 0 {
		return models.Snapshot{}, ErrNotFound
	}
	return s.Read(ctx, brand, dates[0])
}

func (s *MemoryStore) ListDates(_ context.Context, brand string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.snaps[brand]))
	for d := range s.snaps[brand] {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (s *MemoryStore) Index(_ context.Context) (models.BrandIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := models.BrandIndex{UpdatedAt: time.Now()}
	for brand, byDate := range s.snaps {
		entry := models.BrandIndexEntry{Name: brand}
		for d, snap := range byDate {
			entry.Dates = append(entry.Dates, d)
			entry.TotalRecords += snap.RowCount
		}
		sort.Sort(sort.Reverse(sort.StringSlice(entry.Dates)))
		if len(entry.Dates) > 0 {
			entry.LatestDate = entry.Dates[0]
		}
		idx.Brands = append(idx.Brands, entry)
	}
	sort.Slice(idx.Brands, func(i, j int) bool { return idx.Brands[i].Name < idx.Brands[j].Name })
	return idx, nil
}

// InvalidateCache is a no-op; the in-memory index is computed on demand.
func (s *MemoryStore) InvalidateCache() {}
