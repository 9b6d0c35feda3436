package scanner

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/checkmygithub/ghscan/pkg/types"
)

// ContentCache holds decoded file contents keyed by git blob SHA.
// Only content whose computed blob id equals its key is stored, so a hit
// is always the exact bytes of that blob.
type ContentCache struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewContentCache creates a cache holding at most capacity blobs for ttl.
// Call Close to stop the expiry loop.
func NewContentCache(ttl time.Duration, capacity uint64) *ContentCache {
	c := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithCapacity[string, []byte](capacity),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &ContentCache{cache: c}
}

// Get returns the cached content for sha.
func (c *ContentCache) Get(sha string) ([]byte, bool) {
	if c == nil || sha == "" {
		return nil, false
	}
	item := c.cache.Get(sha)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Put stores content under sha if it hashes to sha. It reports whether
// the content was stored.
func (c *ContentCache) Put(sha string, content []byte) bool {
	if c == nil || sha == "" {
		return false
	}
	if !types.ComputeBlobID(content).Matches(sha) {
		return false
	}
	c.cache.Set(sha, content, ttlcache.DefaultTTL)
	return true
}

// Len returns the number of cached blobs.
func (c *ContentCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

// Close stops the expiry loop.
func (c *ContentCache) Close() {
	if c != nil {
		c.cache.Stop()
	}
}
