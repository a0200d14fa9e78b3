package store

import (
	"sort"
	"sync"
	"time"

	"car-intel/internal/models"
)

// indexCache memoizes the brand index between writes so repeated Index calls
// skip the backing query. It is backend-agnostic: the owning store decides
// when to fill it, refresh one brand, or drop it.
type indexCache struct {
	mu  sync.RWMutex
	idx *models.BrandIndex
}

// get returns the cached index, or false when the cache is cold.
func (c *indexCache) get() (models.BrandIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.idx == nil {
		return models.BrandIndex{}, false
	}
	return *c.idx, true
}

func (c *indexCache) set(idx models.BrandIndex) {
	c.mu.Lock()
	c.idx = &idx
	c.mu.Unlock()
}

// invalidate drops the cache so the next get misses and forces a reload.
func (c *indexCache) invalidate() {
	c.mu.Lock()
	c.idx = nil
	c.mu.Unlock()
}

func (c *indexCache) warm() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx != nil
}

// refreshEntry replaces or inserts one brand's entry in a warm cache,
// keeping brand order, and reports whether anything changed. A cold cache
// stays cold; the next get rebuilds everything anyway.
func (c *indexCache) refreshEntry(entry models.BrandIndexEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx == nil {
		return false
	}
	replaced := false
	for i := range c.idx.Brands {
		if c.idx.Brands[i].Name == entry.Name {
			c.idx.Brands[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		c.idx.Brands = append(c.idx.Brands, entry)
		sort.Slice(c.idx.Brands, func(i, j int) bool {
			return c.idx.Brands[i].Name < c.idx.Brands[j].Name
		})
	}
	c.idx.UpdatedAt = time.Now()
	return true
}
