// Package collector runs the daily collection: fetch, parse and normalize
// every registered brand strictly sequentially, write dated snapshots, and
// carry the nearest prior snapshot forward when a brand produces nothing.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-intel/internal/adapters"
	"car-intel/internal/fetch"
	"car-intel/internal/models"
	"car-intel/internal/normalize"
	"car-intel/internal/store"

	"go.uber.org/zap"
)

// Per-brand outcome statuses.
const (
	StatusCollected = "collected"
	StatusFallback  = "fallback"
	StatusFailed    = "failed"
)

// BrandResult reports one brand's outcome for the run.
type BrandResult struct {
	Brand  string
	Status string
	Rows   int
	Err    error
}

type Collector struct {
	registry *adapters.Registry
	store    store.Store
	fetcher  fetch.Fetcher
	logger   *zap.Logger
	now      func() time.Time
}

func New(registry *adapters.Registry, st store.Store, fetcher fetch.Fetcher, logger *zap.Logger) *Collector {
	return &Collector{
		registry: registry,
		store:    st,
		fetcher:  fetcher,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the collection timestamp source, for tests.
func (c *Collector) SetClock(now func() time.Time) { c.now = now }

// Run collects every registered brand for today, one brand at a time. Each
// brand runs to completion (collected, fallback, or failed) before the next
// starts, so a misbehaving vendor cannot interleave with or block a sibling.
// The run itself fails only when every brand failed with no fallback.
func (c *Collector) Run(ctx context.Context) ([]BrandResult, error) {
	date := c.now().Format(models.DateLayout)
	results := make([]BrandResult, 0, len(c.registry.Brands()))
	usable := 0

	for _, brand := range c.registry.Brands() {
		res := c.collectBrand(ctx, brand, date)
		if res.Status != StatusFailed {
			usable++
		}
		results = append(results, res)
	}

	c.store.InvalidateCache()
	if usable == 0 {
		return results, errors.New("collection run failed: no brand produced or inherited any data")
	}
	return results, nil
}

func (c *Collector) collectBrand(ctx context.Context, brand, date string) BrandResult {
	records, err := c.parseBrand(ctx, brand)
	if err != nil {
		c.logger.Error("brand collection failed",
			zap.String("brand", brand),
			zap.String("category", "collect"),
			zap.String("code", "brand_error"),
			zap.Error(err))
	}
	records = normalize.Records(c.logger.With(zap.String("brand", brand)), records)

	if len(records) == 0 {
		return c.fallback(ctx, brand, date, err)
	}

	snap := models.Snapshot{
		Brand:       brand,
		Date:        date,
		CollectedAt: c.now(),
		RowCount:    len(records),
		Records:     records,
	}
	if err := c.store.Write(ctx, snap); err != nil {
		c.logger.Error("snapshot write failed",
			zap.String("brand", brand),
			zap.String("category", "store"),
			zap.String("code", "write_error"),
			zap.Error(err))
		return BrandResult{Brand: brand, Status: StatusFailed, Err: err}
	}
	c.logger.Info("brand collected",
		zap.String("brand", brand),
		zap.String("date", date),
		zap.Int("rows", len(records)))
	return BrandResult{Brand: brand, Status: StatusCollected, Rows: len(records)}
}

// parseBrand resolves the brand's payloads and parses them sequentially,
// concatenating results. A panic inside a vendor adapter is contained here:
// the brand boundary turns it into an error, never a crashed run.
func (c *Collector) parseBrand(ctx context.Context, brand string) (records []models.PriceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()

	adapter, err := c.registry.Get(brand)
	if err != nil {
		return nil, err
	}
	payloads, err := adapter.Sources(ctx, c.fetcher)
	if err != nil {
		return nil, err
	}
	for _, p := range payloads {
		part, perr := adapter.Parse(p)
		if perr != nil {
			c.logger.Warn("payload parse failed, continuing with partial result",
				zap.String("brand", brand),
				zap.String("category", "parse"),
				zap.String("code", "payload_error"),
				zap.String("model", p.Model),
				zap.Error(perr))
			continue
		}
		records = append(records, part...)
	}
	return records, nil
}

// fallback copies the nearest prior snapshot forward for today, tagged so
// consumers can tell stale data from fresh. The original collection date
// survives chained fallbacks.
func (c *Collector) fallback(ctx context.Context, brand, date string, cause error) BrandResult {
	prior, err := c.store.ReadLatest(ctx, brand)
	if err != nil {
		c.logger.Error("no fallback snapshot available",
			zap.String("brand", brand),
			zap.String("category", "collect"),
			zap.String("code", "no_fallback"),
			zap.Error(cause))
		if cause == nil {
			cause = errors.New("collection yielded zero rows")
		}
		return BrandResult{Brand: brand, Status: StatusFailed, Err: cause}
	}

	if prior.Date == date {
		// Same-day re-run failed after an earlier successful run; today's
		// stored snapshot stands and must not be demoted to a fallback copy
		// of itself.
		c.logger.Warn("re-collection failed, keeping existing snapshot",
			zap.String("brand", brand),
			zap.String("date", date),
			zap.Error(cause))
		return BrandResult{Brand: brand, Status: StatusFallback, Rows: len(prior.Records)}
	}

	original := prior.Date
	if prior.IsFallback && prior.OriginalDate != "" {
		original = prior.OriginalDate
	}
	snap := models.Snapshot{
		Brand:        brand,
		Date:         date,
		CollectedAt:  c.now(),
		RowCount:     len(prior.Records),
		Records:      prior.Records,
		IsFallback:   true,
		OriginalDate: original,
	}
	if err := c.store.Write(ctx, snap); err != nil {
		return BrandResult{Brand: brand, Status: StatusFailed, Err: err}
	}
	c.logger.Warn("carried prior snapshot forward",
		zap.String("brand", brand),
		zap.String("date", date),
		zap.String("original_date", original),
		zap.Int("rows", len(prior.Records)))
	return BrandResult{Brand: brand, Status: StatusFallback, Rows: len(prior.Records)}
}
