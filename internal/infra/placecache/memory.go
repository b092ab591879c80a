package placecache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/places"
)

type record struct {
	items     []kundali.PlaceSuggestion
	expiresAt time.Time
}

const sweepInterval = time.Minute

// MemoryCache keeps suggestion lists in process memory. Expired entries are
// swept on writes, at most once per sweepInterval.
type MemoryCache struct {
	mu        sync.RWMutex
	records   map[string]record
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		records: make(map[string]record),
		now:     time.Now,
	}
}

// Get implements places.Cache.
func (c *MemoryCache) Get(_ context.Context, query string) ([]kundali.PlaceSuggestion, bool, error) {
	c.mu.RLock()
	rec, ok := c.records[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !rec.expiresAt.IsZero() && rec.expiresAt.Before(c.now()) {
		c.mu.Lock()
		delete(c.records, query)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]kundali.PlaceSuggestion(nil), rec.items...), true, nil
}

// Set implements places.Cache. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, query string, items []kundali.PlaceSuggestion, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)
	exp := time.Time{}
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.records[query] = record{
		items:     append([]kundali.PlaceSuggestion(nil), items...),
		expiresAt: exp,
	}
	return nil
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	for query, rec := range c.records {
		if !rec.expiresAt.IsZero() && rec.expiresAt.Before(now) {
			delete(c.records, query)
		}
	}
}

var _ places.Cache = (*MemoryCache)(nil)
