package analytics

import (
	"context"

	"car-intel/internal/models"
	"car-intel/internal/store"
)

// latestSnapshots reads every brand's newest snapshot. Brands whose latest
// snapshot cannot be read are skipped; availability beats completeness here.
func latestSnapshots(ctx context.Context, st store.Store) ([]models.Snapshot, error) {
	idx, err := st.Index(ctx)
	if err != nil {
		return nil, err
	}
	snaps := make([]models.Snapshot, 0, len(idx.Brands))
	for _, entry := range idx.Brands {
		snap, err := st.ReadLatest(ctx, entry.Name)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// latestRecords flattens the latest snapshots into one record list.
func latestRecords(ctx context.Context, st store.Store) ([]models.PriceRecord, error) {
	snaps, err := latestSnapshots(ctx, st)
	if err != nil {
		return nil, err
	}
	var records []models.PriceRecord
	for _, s := range snaps {
		records = append(records, s.Records...)
	}
	return records, nil
}
