package search

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
)

// DefaultCacheTTL is the validity window of a cached search result.
const DefaultCacheTTL = 30 * time.Second

// resultCache memoizes search results keyed by the rounded query location
// and filter set. A hit returns the previously built *Result unchanged, so
// repeated reads inside the TTL see the identical object, jittered route
// included.
type resultCache struct {
	store *gocache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &resultCache{store: gocache.New(ttl, 2*ttl)}
}

// cacheKey rounds coordinates to four decimals (~11 m) so jittery GPS reads
// of the same spot share an entry. An unfiltered query carries no filter
// suffix.
func cacheKey(origin geo.Location, filters parking.Filters) string {
	key := fmt.Sprintf("%.4f_%.4f", origin.Lat, origin.Lng)
	if filters.Empty() {
		return key
	}
	return fmt.Sprintf("%s_%g_%g", key, filters.MaxDistanceKm, filters.MaxPrice)
}

func (c *resultCache) get(key string) (*Result, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

func (c *resultCache) put(key string, res *Result) {
	c.store.Set(key, res, gocache.DefaultExpiration)
}

func (c *resultCache) invalidate(key string) {
	c.store.Delete(key)
}

func (c *resultCache) invalidateAll() {
	c.store.Flush()
}
