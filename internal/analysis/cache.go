package analysis

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/patrickmn/go-cache"

	"github.com/oceanecho/oceanecho/internal/features"
)

// featureCache memoises feature vectors by file content so repeated
// predictions of the same clip skip decoding and extraction.
type featureCache struct {
	store      *cache.Cache
	maxEntries int
}

func newFeatureCache(ttl time.Duration, maxEntries int) *featureCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &featureCache{
		store:      cache.New(ttl, ttl),
		maxEntries: maxEntries,
	}
}

// contentKey hashes the file contents.
func contentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func (c *featureCache) get(key string) (features.Vector, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	vec, ok := v.(features.Vector)
	return vec, ok
}

// put stores vec unless the cache is full of unexpired entries.
func (c *featureCache) put(key string, vec features.Vector) {
	if c.maxEntries > 0 && c.store.ItemCount() >= c.maxEntries {
		c.store.DeleteExpired()
		if c.store.ItemCount() >= c.maxEntries {
			return
		}
	}
	c.store.SetDefault(key, vec)
}

func (c *featureCache) len() int {
	return c.store.ItemCount()
}
