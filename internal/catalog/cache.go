// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/multichat-tui/internal/store"
)

// CacheTTL is how long a cached catalog stays valid.
const CacheTTL = 6 * time.Hour

// cacheEnvelope is the persisted cache shape: the fetch timestamp in
// Unix milliseconds plus the catalog itself.
type cacheEnvelope struct {
	Timestamp int64   `json:"timestamp"`
	Catalog   Catalog `json:"catalog"`
}

// Cache persists the resolved catalog with a TTL. Any malformed or
// expired entry reads as a miss; corruption is never an error.
type Cache struct {
	kv  store.KV
	now func() time.Time
}

// NewCache wraps a KV backend.
func NewCache(kv store.KV) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// WithClock substitutes the time source, used by TTL tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Load returns the cached catalog, or nil on miss, expiry, or a corrupt
// entry.
func (c *Cache) Load() Catalog {
	data, err := c.kv.Get(store.KeyModelCatalog)
	if err != nil {
		return nil
	}

	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Timestamp == 0 || env.Catalog == nil {
		return nil
	}
	if c.now().UnixMilli()-env.Timestamp > CacheTTL.Milliseconds() {
		return nil
	}
	return env.Catalog
}

// Store persists a catalog stamped with the current time.
func (c *Cache) Store(catalog Catalog) error {
	data, err := json.Marshal(cacheEnvelope{
		Timestamp: c.now().UnixMilli(),
		Catalog:   catalog,
	})
	if err != nil {
		return err
	}
	return c.kv.Set(store.KeyModelCatalog, data)
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve produces the catalog to use right now: a fresh live fetch
// when anything answered (also refreshing the cache), else the cached
// catalog, else the built-in defaults. The result is always normalized.
func Resolve(fetch func() Catalog, cache *Cache) Catalog {
	cached := cache.Load()

	live := fetch()
	if live != nil {
		cache.Store(live)
		return live.Normalize()
	}
	if cached != nil {
		return cached.Normalize()
	}
	return DefaultCatalog().Normalize()
}
