// Package cache is a best-effort read-through layer for catalog reads. A
// failing backend falls back to the loader; callers never see a cache error.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Store is the backend contract: atomic get/set/delete per key.
type Store interface {
	Get(key string) (interface{}, bool, error)
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error
}

// Loader fetches the value on a miss.
type Loader func() (interface{}, error)

type Cache struct {
	store      Store
	defaultTTL time.Duration
	log        *zap.Logger
}

func New(store Store, defaultTTL time.Duration, log *zap.Logger) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Cache{store: store, defaultTTL: defaultTTL, log: log}
}

// Get returns the cached value for key if present and unexpired, otherwise it
// invokes the loader, stores the result with ttl (0 means the default) and
// returns it. Concurrent misses may invoke the loader redundantly; that is
// accepted over locking per key.
func (c *Cache) Get(key string, ttl time.Duration, loader Loader) (interface{}, error) {
	if v, ok, err := c.store.Get(key); err != nil {
		c.log.Warn("cache get failed, falling back to loader", zap.String("key", key), zap.Error(err))
	} else if ok {
		return v, nil
	}

	v, err := loader()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.store.Set(key, v, ttl); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// Invalidate removes the entry immediately. Failures are logged and swallowed;
// the entry will age out by TTL at worst.
func (c *Cache) Invalidate(key string) {
	if err := c.store.Delete(key); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

// MemoryStore backs the cache with patrickmn/go-cache.
type MemoryStore struct{ c *gocache.Cache }

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(defaultTTL, 10*time.Minute)}
}

func (m *MemoryStore) Get(key string) (interface{}, bool, error) {
	v, ok := m.c.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(key string, value interface{}, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.c.Delete(key)
	return nil
}
