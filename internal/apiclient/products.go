package apiclient

import (
	"context"
	"encoding/json"
	"time"

	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Product is one catalog entry returned by a supplier product search.
type Product struct {
	SKU          string
	Name         string
	Unit         string
	Category     string
	Manufacturer string
	EAN          string
	CostPrice    *float64
	ListPrice    *float64
}

// ProductPrice is one price lookup result. Stale marks prices served from
// an expired cache entry because the supplier API was unreachable.
type ProductPrice struct {
	SKU         string
	CostPrice   *float64
	ListPrice   *float64
	Currency    string
	Stale       bool
	RetrievedAt time.Time
}

// SearchResult is one page of a product search. Stale marks results
// served from the cache because the supplier API was unreachable.
type SearchResult struct {
	Products []Product
	Total    int
	HasMore  bool
	Stale    bool
}

// Client is the operation surface every supplier API client offers.
// GetProductPrice returns nil for a SKU the supplier does not know.
type Client interface {
	SupplierCode() string
	TestConnection(ctx context.Context) error
	SearchProducts(ctx context.Context, query string) (*SearchResult, error)
	GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error)
	GetProductPrices(ctx context.Context, skus []string) (map[string]ProductPrice, error)
}

// cachedLookups wraps price and search fetches with the cache protocol:
// successful lookups are written through, failed lookups fall back to the
// cached data even when stale. Connection tests bypass this path entirely.
type cachedLookups struct {
	cache        *pricecache.Cache
	supplierCode string
	log          *logger.Logger
	now          func() time.Time
}

func newCachedLookups(cache *pricecache.Cache, supplierCode string, log *logger.Logger) *cachedLookups {
	return &cachedLookups{cache: cache, supplierCode: supplierCode, log: log, now: time.Now}
}

func (p *cachedLookups) get(ctx context.Context, sku string, fetch func(context.Context, string) (*ProductPrice, error)) (*ProductPrice, error) {
	price, err := fetch(ctx, sku)
	if err == nil {
		p.store(ctx, price)
		return price, nil
	}
	// An unknown SKU is an answer, not an outage.
	if apperr.GetKind(err) == apperr.KindNotFound {
		return nil, nil
	}

	if p.cache != nil {
		entry, cacheErr := p.cache.Get(ctx, p.supplierCode, sku)
		if cacheErr == nil && entry != nil {
			p.log.Warn("serving cached price after api failure",
				"supplier_code", p.supplierCode,
				"sku", sku,
				"stale", entry.Stale(p.now()),
				"error", err.Error(),
			)
			return &ProductPrice{
				SKU:         entry.SKU,
				CostPrice:   entry.CostPrice,
				ListPrice:   entry.ListPrice,
				Stale:       entry.Stale(p.now()),
				RetrievedAt: entry.CachedAt,
			}, nil
		}
	}
	return nil, err
}

func (p *cachedLookups) store(ctx context.Context, price *ProductPrice) {
	if p.cache == nil || price == nil {
		return
	}
	err := p.cache.Put(ctx, pricecache.Entry{
		SupplierCode: p.supplierCode,
		SKU:          price.SKU,
		CostPrice:    price.CostPrice,
		ListPrice:    price.ListPrice,
		Source:       pricecache.SourceAPI,
	})
	if err != nil {
		p.log.Warn("price cache write failed", "supplier_code", p.supplierCode, "sku", price.SKU, "error", err.Error())
	}
}

// search wraps a product search. A failed search first falls back to the
// last cached result for the same query; with nothing cached it degrades
// to an empty result set, never an error.
func (p *cachedLookups) search(ctx context.Context, query string, fetch func(context.Context, string) (*SearchResult, error)) (*SearchResult, error) {
	result, err := fetch(ctx, query)
	if err == nil {
		p.storeSearch(ctx, query, result)
		return result, nil
	}

	if p.cache != nil {
		entry, cacheErr := p.cache.GetSearch(ctx, p.supplierCode, query)
		if cacheErr == nil && entry != nil {
			var cached SearchResult
			if json.Unmarshal(entry.Payload, &cached) == nil {
				p.log.Warn("serving cached search after api failure",
					"supplier_code", p.supplierCode,
					"query", query,
					"stale", entry.Stale(p.now()),
					"error", err.Error(),
				)
				cached.Stale = entry.Stale(p.now())
				return &cached, nil
			}
		}
	}

	p.log.Warn("search degraded to empty result",
		"supplier_code", p.supplierCode, "query", query, "error", err.Error())
	return &SearchResult{Products: []Product{}}, nil
}

func (p *cachedLookups) storeSearch(ctx context.Context, query string, result *SearchResult) {
	if p.cache == nil || result == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := p.cache.PutSearch(ctx, p.supplierCode, query, payload); err != nil {
		p.log.Warn("search cache write failed", "supplier_code", p.supplierCode, "query", query, "error", err.Error())
	}
}
