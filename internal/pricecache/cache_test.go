package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"catalog_sync_backend/platform/logger"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, ttl, logger.New("development")), mr
}

func price(v float64) *float64 { return &v }

func TestPutAndGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	err := cache.Put(ctx, Entry{
		SupplierCode: "solar",
		SKU:          "1001",
		CostPrice:    price(12.50),
		ListPrice:    price(25.00),
		Source:       SourceAPI,
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, err := cache.Get(ctx, "solar", "1001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a hit")
	}
	if entry.CostPrice == nil || *entry.CostPrice != 12.50 {
		t.Fatalf("unexpected cost price: %v", entry.CostPrice)
	}
	if entry.Source != SourceAPI {
		t.Fatalf("unexpected source: %q", entry.Source)
	}
	if entry.Stale(time.Now()) {
		t.Fatal("fresh entry must not be stale")
	}
}

func TestGetMissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	entry, err := cache.Get(context.Background(), "solar", "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil on miss, got %+v", entry)
	}
}

func TestStaleEntryStillServed(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	cache.now = func() time.Time { return past }
	if err := cache.Put(ctx, Entry{SupplierCode: "lm", SKU: "42", CostPrice: price(9.95), Source: SourceAPI}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	cache.now = time.Now

	entry, err := cache.Get(ctx, "lm", "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected stale entry to still be served")
	}
	if !entry.Stale(time.Now()) {
		t.Fatal("expected entry to report stale")
	}
}

func TestRetentionOutlivesFreshness(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, Entry{SupplierCode: "solar", SKU: "7", Source: SourceFile}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Past the freshness window but inside retention.
	mr.FastForward(2 * time.Minute)
	entry, err := cache.Get(ctx, "solar", "7")
	if err != nil || entry == nil {
		t.Fatalf("expected entry inside retention, got %v / %v", entry, err)
	}

	// Past retention.
	mr.FastForward(3 * time.Minute)
	entry, err = cache.Get(ctx, "solar", "7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Fatal("expected redis to evict past retention")
	}
}

func TestGetMany(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	for _, sku := range []string{"1", "2"} {
		if err := cache.Put(ctx, Entry{SupplierCode: "solar", SKU: sku, Source: SourceAPI}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	entries, err := cache.GetMany(ctx, "solar", []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(entries))
	}
	if _, ok := entries["3"]; ok {
		t.Fatal("expected sku 3 to miss")
	}
}

func TestPutAndGetSearch(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	payload := []byte(`{"products":[{"sku":"1001"}]}`)
	if err := cache.PutSearch(ctx, "solar", "Kabelrør", payload); err != nil {
		t.Fatalf("PutSearch: %v", err)
	}

	// Lookup is case-insensitive on the query.
	entry, err := cache.GetSearch(ctx, "solar", "kabelrør")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a hit")
	}
	if string(entry.Payload) != string(payload) {
		t.Fatalf("unexpected payload: %s", entry.Payload)
	}
	if entry.Stale(time.Now()) {
		t.Fatal("fresh search entry must not be stale")
	}
}

func TestGetSearchMissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	entry, err := cache.GetSearch(context.Background(), "solar", "ukendt")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil on miss, got %+v", entry)
	}
}

func TestInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	if err := cache.Put(ctx, Entry{SupplierCode: "solar", SKU: "1", Source: SourceAPI}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Invalidate(ctx, "solar", "1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	entry, err := cache.Get(ctx, "solar", "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Fatal("expected invalidated entry to miss")
	}

	if err := cache.Invalidate(ctx, "solar", "absent"); err != nil {
		t.Fatalf("Invalidate absent: %v", err)
	}
}
