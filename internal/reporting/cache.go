package reporting

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

// DefaultCacheSize is used when a non-positive size is configured
const DefaultCacheSize = 256

// Cache keeps recently fetched report headers with LRU eviction. Headers
// never change once written.
type Cache struct {
	cache *lru.Cache[int64, *types.Report]
}

// NewCache creates a report cache holding at most maxLen reports
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[int64, *types.Report](maxLen)
	if err != nil {
		cache, _ = lru.New[int64, *types.Report](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of a cached report so callers cannot alter the cached value
func (c *Cache) Get(id int64) (*types.Report, bool) {
	r, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return cloneReport(r), true
}

// Set stores a copy of r
func (c *Cache) Set(r *types.Report) {
	c.cache.Add(r.ID, cloneReport(r))
}

// Size returns the number of cached reports
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

func cloneReport(r *types.Report) *types.Report {
	out := *r
	if r.Contents != nil {
		out.Contents = make([]types.ReportContent, len(r.Contents))
		copy(out.Contents, r.Contents)
	}
	return &out
}
