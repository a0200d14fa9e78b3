package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"car-intel/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnapshotMeta is the per-(brand, date) header row.
type SnapshotMeta struct {
	ID           uint      `gorm:"primaryKey"`
	Brand        string    `gorm:"uniqueIndex:idx_snapshot_key;size:64;not null"`
	Date         string    `gorm:"uniqueIndex:idx_snapshot_key;size:10;not null"`
	CollectedAt  time.Time `gorm:"not null"`
	RowCount     int       `gorm:"not null"`
	IsFallback   bool      `gorm:"default:false"`
	OriginalDate string    `gorm:"size:10"`
	CreatedAt    time.Time
}

// SnapshotRecord is one price row inside a snapshot. Position preserves the
// vendor's publication order across the round trip.
type SnapshotRecord struct {
	ID            uint   `gorm:"primaryKey"`
	Brand         string `gorm:"index:idx_record_key;size:64;not null"`
	Date          string `gorm:"index:idx_record_key;size:10;not null"`
	Position      int    `gorm:"not null"`
	Model         string `gorm:"size:128"`
	Trim          string `gorm:"size:128"`
	Engine        string `gorm:"size:128"`
	Transmission  string `gorm:"size:32"`
	Fuel          string `gorm:"size:32"`
	DisplayPrice  string `gorm:"size:64"`
	Price         int64  `gorm:"not null"`
	ModelYear     int
	TaxRate       float64
	CampaignPrice int64
}

// GormStore keeps snapshots in two MySQL tables and caches the brand index
// in memory, updating the touched brand's entry on every successful write.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
	cache  indexCache
}

// NewGormStore migrates the snapshot tables and returns a ready store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&SnapshotMeta{}, &SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot tables: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

// Write replaces any existing snapshot for (brand, date) in one transaction,
// then refreshes the cached index entry for the brand.
func (s *GormStore) Write(ctx context.Context, snap models.Snapshot) error {
	if snap.Brand == "" || snap.Date == "" {
		return fmt.Errorf("write snapshot: brand and date are required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("brand = ? AND date = ?", snap.Brand, snap.Date).
			Delete(&SnapshotMeta{}).Error; err != nil {
			return err
		}
		if err := tx.Where("brand = ? AND date = ?", snap.Brand, snap.Date).
			Delete(&SnapshotRecord{}).Error; err != nil {
			return err
		}
		meta := SnapshotMeta{
			Brand:        snap.Brand,
			Date:         snap.Date,
			CollectedAt:  snap.CollectedAt,
			RowCount:     len(snap.Records),
			IsFallback:   snap.IsFallback,
			OriginalDate: snap.OriginalDate,
		}
		if err := tx.Create(&meta).Error; err != nil {
			return err
		}
		if len(snap.Records) == 0 {
			return nil
		}
		rows := make([]SnapshotRecord, 0, len(snap.Records))
		for i, r := range snap.Records {
			rows = append(rows, SnapshotRecord{
				Brand:         snap.Brand,
				Date:          snap.Date,
				Position:      i,
				Model:         r.Model,
				Trim:          r.Trim,
				Engine:        r.Engine,
				Transmission:  r.Transmission,
				Fuel:          r.Fuel,
				DisplayPrice:  r.DisplayPrice,
				Price:         r.Price,
				ModelYear:     r.ModelYear,
				TaxRate:       r.TaxRate,
				CampaignPrice: r.CampaignPrice,
			})
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s/%s: %w", snap.Brand, snap.Date, err)
	}
	s.refreshIndexEntry(ctx, snap.Brand)
	return nil
}

// Read loads one snapshot. Missing or unreadable data both map to ErrNotFound.
func (s *GormStore) Read(ctx context.Context, brand, date string) (models.Snapshot, error) {
	var meta SnapshotMeta
	err := s.db.WithContext(ctx).
		Where("brand = ? AND date = ?", brand, date).
		First(&meta).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("unreadable snapshot meta, treating as missing",
				zap.String("brand", brand), zap.String("date", date), zap.Error(err))
		}
		return models.Snapshot{}, ErrNotFound
	}
	var rows []SnapshotRecord
	err = s.db.WithContext(ctx).
		Where("brand = ? AND date = ?", brand, date).
		Order("position asc").
		Find(&rows).Error
	if err != nil {
		s.logger.Warn("unreadable snapshot records, treating as missing",
			zap.String("brand", brand), zap.String("date", date), zap.Error(err))
		return models.Snapshot{}, ErrNotFound
	}
	snap := models.Snapshot{
		Brand:        meta.Brand,
		Date:         meta.Date,
		CollectedAt:  meta.CollectedAt,
		RowCount:     meta.RowCount,
		IsFallback:   meta.IsFallback,
		OriginalDate: meta.OriginalDate,
		Records:      make([]models.PriceRecord, 0, len(rows)),
	}
	for _, row := range rows {
		snap.Records = append(snap.Records, models.PriceRecord{
			Brand:         meta.Brand,
			Model:         row.Model,
			Trim:          row.Trim,
			Engine:        row.Engine,
			Transmission:  row.Transmission,
			Fuel:          row.Fuel,
			DisplayPrice:  row.DisplayPrice,
			Price:         row.Price,
			ModelYear:     row.ModelYear,
			TaxRate:       row.TaxRate,
			CampaignPrice: row.CampaignPrice,
		})
	}
	return snap, nil
}

// ReadLatest returns the brand's most recent snapshot.
func (s *GormStore) ReadLatest(ctx context.Context, brand string) (models.Snapshot, error) {
	dates, err := s.ListDates(ctx, brand)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(dates) == 0 {
		return models.Snapshot{}, ErrNotFound
	}
	return s.Read(ctx, brand, dates[0])
}

// ListDates returns the brand's available dates sorted descending.
func (s *GormStore) ListDates(ctx context.Context, brand string) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).
		Model(&SnapshotMeta{}).
		Where("brand = ?", brand).
		Order("date desc").
		Pluck("date", &dates).Error
	if err != nil {
		s.logger.Warn("list dates failed, treating as empty",
			zap.String("brand", brand), zap.Error(err))
		return nil, nil
	}
	return dates, nil
}

// Index returns the cached brand index, rebuilding it from the meta table
// when the cache is cold.
func (s *GormStore) Index(ctx context.Context) (models.BrandIndex, error) {
	if idx, ok := s.cache.get(); ok {
		return idx, nil
	}
	idx, err := s.buildIndex(ctx)
	if err != nil {
		return models.BrandIndex{UpdatedAt: time.Now()}, nil
	}
	s.cache.set(idx)
	return idx, nil
}

// InvalidateCache drops the cached index so the next Index call reloads it.
func (s *GormStore) InvalidateCache() {
	s.cache.invalidate()
}

func (s *GormStore) buildIndex(ctx context.Context) (models.BrandIndex, error) {
	var metas []SnapshotMeta
	if err := s.db.WithContext(ctx).Order("brand asc, date desc").Find(&metas).Error; err != nil {
		s.logger.Warn("index rebuild failed, serving empty index", zap.Error(err))
		return models.BrandIndex{}, err
	}
	idx := models.BrandIndex{UpdatedAt: time.Now()}
	byBrand := map[string]*models.BrandIndexEntry{}
	for _, m := range metas {
		e := byBrand[m.Brand]
		if e == nil {
			e = &models.BrandIndexEntry{Name: m.Brand}
			byBrand[m.Brand] = e
		}
		e.Dates = append(e.Dates, m.Date)
		e.TotalRecords += m.RowCount
	}
	for _, e := range byBrand {
		sort.Sort(sort.Reverse(sort.StringSlice(e.Dates)))
		e.LatestDate = e.Dates[0]
		idx.Brands = append(idx.Brands, *e)
	}
	sort.Slice(idx.Brands, func(i, j int) bool { return idx.Brands[i].Name < idx.Brands[j].Name })
	return idx, nil
}

// refreshIndexEntry updates one brand inside the cached index after a write.
// A cold cache stays cold; the next Index call rebuilds everything anyway.
func (s *GormStore) refreshIndexEntry(ctx context.Context, brand string) {
	if !s.cache.warm() {
		return
	}
	var metas []SnapshotMeta
	if err := s.db.WithContext(ctx).
		Where("brand = ?", brand).
		Order("date desc").
		Find(&metas).Error; err != nil {
		s.cache.invalidate()
		return
	}
	entry := models.BrandIndexEntry{Name: brand}
	for _, m := range metas {
		entry.Dates = append(entry.Dates, m.Date)
		entry.TotalRecords += m.RowCount
	}
	if len(entry.Dates) > 0 {
		entry.LatestDate = entry.Dates[0]
	}
	s.cache.refreshEntry(entry)
}
