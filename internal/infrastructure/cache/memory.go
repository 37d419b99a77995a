package cache

import (
	"context"
	"sync"

	"github.com/ready2cook/backend/internal/domain"
)

// MemorySearchCache is a thread-safe in-memory search cache.
// Keys are the raw query strings; entries live until Clear or process exit.
type MemorySearchCache struct {
	data  map[string][]domain.RecipeSummary
	mutex sync.RWMutex
}

// NewMemorySearchCache creates a new empty in-memory search cache
func NewMemorySearchCache() *MemorySearchCache {
	return &MemorySearchCache{
		data: make(map[string][]domain.RecipeSummary),
	}
}

// Lookup retrieves the results stored for query
func (c *MemorySearchCache) Lookup(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	results, exists := c.data[query]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	return cloneSummaries(results), nil
}

// Store saves results for query, replacing any previous entry
func (c *MemorySearchCache) Store(ctx context.Context, query string, results []domain.RecipeSummary) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[query] = cloneSummaries(results)
	return nil
}

// Size returns the current number of cached queries (for debugging/monitoring)
func (c *MemorySearchCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all cached queries
func (c *MemorySearchCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string][]domain.RecipeSummary)
}

// cloneSummaries copies the slice so callers cannot mutate cached entries.
// Enrichment pointers are shared; they are never written after a fetch.
func cloneSummaries(in []domain.RecipeSummary) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, len(in))
	copy(out, in)
	return out
}
