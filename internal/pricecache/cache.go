// Package pricecache caches supplier price lookups in Redis. Entries carry
// their own logical expiry: a stale entry is still served as fallback when
// the supplier API is down, so the Redis retention runs longer than the
// freshness window.
package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Price sources.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// Entries stay in Redis this many freshness windows past their logical
// expiry, to remain available as fallback data.
const retentionFactor = 4

// Entry is one cached price lookup.
type Entry struct {
	SupplierCode string    `json:"supplier_code"`
	SKU          string    `json:"sku"`
	CostPrice    *float64  `json:"cost_price,omitempty"`
	ListPrice    *float64  `json:"list_price,omitempty"`
	Source       string    `json:"source"`
	CachedAt     time.Time `json:"cached_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Stale reports whether the entry's freshness window has passed.
func (e Entry) Stale(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is a Redis-backed price cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// New creates a cache with the given freshness window.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, log: log, now: time.Now}
}

func key(supplierCode, sku string) string {
	return fmt.Sprintf("price:%s:%s", supplierCode, sku)
}

// Put stores an entry, stamping its cache and expiry times.
func (c *Cache) Put(ctx context.Context, entry Entry) error {
	now := c.now()
	entry.CachedAt = now
	entry.ExpiresAt = now.Add(c.ttl)

	payload, err := json.Marshal(entry)
	if err != nil {
		return apperr.Internal("marshal price cache entry")
	}

	if err := c.client.Set(ctx, key(entry.SupplierCode, entry.SKU), payload, c.ttl*retentionFactor).Err(); err != nil {
		return apperr.Transient("price cache write failed", err)
	}
	return nil
}

// Get returns the cached entry, or nil on a miss. Stale entries are
// returned; the caller decides whether staleness is acceptable.
func (c *Cache) Get(ctx context.Context, supplierCode, sku string) (*Entry, error) {
	payload, err := c.client.Get(ctx, key(supplierCode, sku)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Transient("price cache read failed", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		// A corrupt entry is treated as a miss.
		c.log.Warn("dropping corrupt price cache entry", "supplier_code", supplierCode, "sku", sku)
		return nil, nil
	}
	return &entry, nil
}

// GetMany fetches entries for several SKUs in one round trip. Misses are
// absent from the result map; the map is never nil.
func (c *Cache) GetMany(ctx context.Context, supplierCode string, skus []string) (map[string]Entry, error) {
	entries := make(map[string]Entry, len(skus))
	if len(skus) == 0 {
		return entries, nil
	}

	keys := make([]string, len(skus))
	for i, sku := range skus {
		keys[i] = key(supplierCode, sku)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Transient("price cache read failed", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries[skus[i]] = entry
	}
	return entries, nil
}

// SearchEntry is one cached product search. The payload is the client's
// own serialized result; the cache does not interpret it.
type SearchEntry struct {
	SupplierCode string          `json:"supplier_code"`
	Query        string          `json:"query"`
	Payload      json.RawMessage `json:"payload"`
	CachedAt     time.Time       `json:"cached_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// Stale reports whether the entry's freshness window has passed.
func (e SearchEntry) Stale(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

func searchKey(supplierCode, query string) string {
	return fmt.Sprintf("search:%s:%s", supplierCode, strings.ToLower(strings.TrimSpace(query)))
}

// PutSearch stores a serialized search result under its query.
func (c *Cache) PutSearch(ctx context.Context, supplierCode, query string, payload []byte) error {
	now := c.now()
	entry := SearchEntry{
		SupplierCode: supplierCode,
		Query:        query,
		Payload:      payload,
		CachedAt:     now,
		ExpiresAt:    now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return apperr.Internal("marshal search cache entry")
	}

	if err := c.client.Set(ctx, searchKey(supplierCode, query), data, c.ttl*retentionFactor).Err(); err != nil {
		return apperr.Transient("search cache write failed", err)
	}
	return nil
}

// GetSearch returns the cached search entry for a query, or nil on a
// miss. Stale entries are returned, like Get.
func (c *Cache) GetSearch(ctx context.Context, supplierCode, query string) (*SearchEntry, error) {
	payload, err := c.client.Get(ctx, searchKey(supplierCode, query)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Transient("search cache read failed", err)
	}

	var entry SearchEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		c.log.Warn("dropping corrupt search cache entry", "supplier_code", supplierCode, "query", query)
		return nil, nil
	}
	return &entry, nil
}

// Invalidate removes a cached entry. Removing an absent key is a no-op.
func (c *Cache) Invalidate(ctx context.Context, supplierCode, sku string) error {
	if err := c.client.Del(ctx, key(supplierCode, sku)).Err(); err != nil {
		return apperr.Transient("price cache delete failed", err)
	}
	return nil
}
