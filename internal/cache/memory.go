package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the hot layer, backed by go-cache with periodic
// expiry sweeps.
type MemoryCache struct {
	inner *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{inner: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value from the cache
func (m *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := m.inner.Get(key)
	if !found {
		return nil, false
	}
	return val.([]byte), true
}

// Set stores a value. A zero ttl falls back to the cache default, the
// same convention the disk layer follows.
func (m *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.inner.Set(key, value, ttl)
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(key string) error {
	m.inner.Delete(key)
	return nil
}

// Clear drops every entry
func (m *MemoryCache) Clear() error {
	m.inner.Flush()
	return nil
}
