package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

func newPriceCache(t *testing.T) *pricecache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return pricecache.New(client, time.Hour, logger.New("development"))
}

func solarCreds(endpoint string) credentials.Credentials {
	return credentials.Credentials{APIEndpoint: endpoint, Username: "u", Password: "p"}
}

func lmCreds(endpoint string) credentials.Credentials {
	return credentials.Credentials{APIEndpoint: endpoint, Username: "u", Password: "p", CustomerNumber: "12345"}
}

// solarServer serves login plus a single product price; failing toggles
// the price endpoint into 500s.
func solarServer(t *testing.T, failing *atomic.Bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1"})
	})
	mux.HandleFunc("GET /products/{sku}/price", func(w http.ResponseWriter, r *http.Request) {
		if failing != nil && failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"productNumber": r.PathValue("sku"),
			"netPrice":      12.5,
			"listPrice":     25.0,
			"currency":      "DKK",
		})
	})
	mux.HandleFunc("GET /products/search", func(w http.ResponseWriter, r *http.Request) {
		if failing != nil && failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{
				{"productNumber": "1001", "description": "Kabelrør 20mm", "unit": "stk", "netPrice": 12.5},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSolarSearchProducts(t *testing.T) {
	srv := solarServer(t, nil)
	client, err := NewSolarClient(solarCreds(srv.URL), nil, logger.New("development"))
	if err != nil {
		t.Fatalf("NewSolarClient: %v", err)
	}

	result, err := client.SearchProducts(context.Background(), "kabelrør")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(result.Products) != 1 || result.Products[0].SKU != "1001" || result.Products[0].Name != "Kabelrør 20mm" {
		t.Fatalf("unexpected products: %+v", result.Products)
	}
	if result.Total != 1 {
		t.Fatalf("expected total 1, got %d", result.Total)
	}
}

func TestSolarSearchFallsBackToCache(t *testing.T) {
	var failing atomic.Bool
	srv := solarServer(t, &failing)
	cache := newPriceCache(t)

	client, err := NewSolarClient(solarCreds(srv.URL), cache, logger.New("development"),
		WithMaxAttempts(1), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("NewSolarClient: %v", err)
	}
	ctx := context.Background()

	if _, err := client.SearchProducts(ctx, "kabelrør"); err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}

	failing.Store(true)
	result, err := client.SearchProducts(ctx, "kabelrør")
	if err != nil {
		t.Fatalf("expected cached search while api is down, got %v", err)
	}
	if len(result.Products) != 1 || result.Products[0].SKU != "1001" {
		t.Fatalf("unexpected cached search result: %+v", result)
	}

	// Never searched before, so the result degrades to empty rather than
	// an error.
	result, err = client.SearchProducts(ctx, "sikringer")
	if err != nil {
		t.Fatalf("expected degraded empty result, got %v", err)
	}
	if result.Products == nil || len(result.Products) != 0 {
		t.Fatalf("expected empty non-nil product list, got %+v", result.Products)
	}
}

func TestSolarUnknownSKUReturnsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /products/{sku}/price", http.NotFound)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewSolarClient(solarCreds(srv.URL), nil, logger.New("development"))
	if err != nil {
		t.Fatalf("NewSolarClient: %v", err)
	}

	price, err := client.GetProductPrice(context.Background(), "ukendt")
	if err != nil {
		t.Fatalf("GetProductPrice: %v", err)
	}
	if price != nil {
		t.Fatalf("expected nil for unknown sku, got %+v", price)
	}
}

func TestSolarPriceWriteThroughAndFallback(t *testing.T) {
	var failing atomic.Bool
	srv := solarServer(t, &failing)
	cache := newPriceCache(t)

	client, err := NewSolarClient(solarCreds(srv.URL), cache, logger.New("development"),
		WithMaxAttempts(1), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("NewSolarClient: %v", err)
	}
	ctx := context.Background()

	price, err := client.GetProductPrice(ctx, "1001")
	if err != nil {
		t.Fatalf("GetProductPrice: %v", err)
	}
	if price.Stale || price.CostPrice == nil || *price.CostPrice != 12.5 {
		t.Fatalf("unexpected live price: %+v", price)
	}

	failing.Store(true)
	price, err = client.GetProductPrice(ctx, "1001")
	if err != nil {
		t.Fatalf("expected cache fallback, got %v", err)
	}
	if price.CostPrice == nil || *price.CostPrice != 12.5 {
		t.Fatalf("unexpected cached price: %+v", price)
	}

	// Never cached, so the failure surfaces.
	if _, err := client.GetProductPrice(ctx, "9999"); err == nil {
		t.Fatal("expected uncached sku to fail while api is down")
	}
}

func TestSolarBatchPrices(t *testing.T) {
	srv := solarServer(t, nil)
	client, err := NewSolarClient(solarCreds(srv.URL), nil, logger.New("development"))
	if err != nil {
		t.Fatalf("NewSolarClient: %v", err)
	}

	prices, err := client.GetProductPrices(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("GetProductPrices: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("expected 3 prices, got %d", len(prices))
	}
	if prices["2"].CostPrice == nil || *prices["2"].CostPrice != 12.5 {
		t.Fatalf("unexpected price: %+v", prices["2"])
	}
}

func TestFetchPricesSkipsNotFound(t *testing.T) {
	get := func(_ context.Context, sku string) (*ProductPrice, error) {
		if sku == "gone" {
			return nil, apperr.NotFound("no such product")
		}
		cost := 5.0
		return &ProductPrice{SKU: sku, CostPrice: &cost}, nil
	}

	prices, err := fetchPrices(context.Background(), []string{"a", "gone", "b"}, get)
	if err != nil {
		t.Fatalf("fetchPrices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected unknown sku skipped, got %+v", prices)
	}
}

func TestFetchPricesDegradesToPartialResults(t *testing.T) {
	get := func(_ context.Context, sku string) (*ProductPrice, error) {
		if sku == "nede" {
			return nil, apperr.Transient("supplier api unreachable", nil)
		}
		cost := 5.0
		return &ProductPrice{SKU: sku, CostPrice: &cost}, nil
	}

	prices, err := fetchPrices(context.Background(), []string{"a", "nede", "b"}, get)
	if err != nil {
		t.Fatalf("fetchPrices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected the failing sku skipped, got %+v", prices)
	}
	if _, ok := prices["nede"]; ok {
		t.Fatal("expected no entry for the failed lookup")
	}
}

func TestLMClientAuthAndPrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Customer-Number") != "12345" {
			w.WriteHeader(http.StatusForbidden)
		}
	})
	mux.HandleFunc("GET /api/products/{sku}/price", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"articleNumber": r.PathValue("sku"),
			"netPrice":      80.0,
			"grossPrice":    100.0,
			"currency":      "DKK",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewLemvighMullerClient(lmCreds(srv.URL), nil, logger.New("development"))
	if err != nil {
		t.Fatalf("NewLemvighMullerClient: %v", err)
	}
	ctx := context.Background()

	if err := client.TestConnection(ctx); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}

	price, err := client.GetProductPrice(ctx, "556677")
	if err != nil {
		t.Fatalf("GetProductPrice: %v", err)
	}
	if price.CostPrice == nil || *price.CostPrice != 80.0 {
		t.Fatalf("unexpected price: %+v", price)
	}
	if price.ListPrice == nil || *price.ListPrice != 100.0 {
		t.Fatalf("expected gross carried as list price: %+v", price)
	}
}

func TestLMClientRequiresCustomerNumber(t *testing.T) {
	creds := lmCreds("http://localhost")
	creds.CustomerNumber = ""
	if _, err := NewLemvighMullerClient(creds, nil, logger.New("development")); err == nil {
		t.Fatal("expected missing customer number to fail")
	}
}

type fakeStore struct {
	creds credentials.Credentials
	calls int
}

func (s *fakeStore) LoadDecrypted(context.Context, uuid.UUID, credentials.Type) (credentials.Credentials, error) {
	s.calls++
	return s.creds, nil
}

func (s *fakeStore) RecordTestResult(context.Context, uuid.UUID, credentials.Type, string, string) error {
	return nil
}

func TestFactoryCachesClients(t *testing.T) {
	srv := solarServer(t, nil)
	store := &fakeStore{creds: solarCreds(srv.URL)}
	factory := NewFactory(store, nil, logger.New("development"))

	supplierID := uuid.New()
	ctx := context.Background()

	first, err := factory.Get(ctx, supplierID, "solar")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := factory.Get(ctx, supplierID, "solar")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached client on the second call")
	}
	if store.calls != 1 {
		t.Fatalf("expected credentials loaded once, got %d", store.calls)
	}

	factory.Evict(supplierID, "solar")
	third, err := factory.Get(ctx, supplierID, "solar")
	if err != nil {
		t.Fatalf("Get after evict: %v", err)
	}
	if third == first {
		t.Fatal("expected a rebuilt client after eviction")
	}
	if store.calls != 2 {
		t.Fatalf("expected credentials reloaded, got %d calls", store.calls)
	}
}

func TestFactoryUnknownSupplier(t *testing.T) {
	store := &fakeStore{creds: solarCreds("http://localhost")}
	factory := NewFactory(store, nil, logger.New("development"))

	_, err := factory.Get(context.Background(), uuid.New(), "nobody")
	if apperr.GetKind(err) != apperr.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}
