package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Basic auth carries no session state; the "session" only expires so a
// credential rotation gets picked up without a restart.
const lmSessionTTL = 24 * time.Hour

// lmAuthenticator verifies Lemvigh-Müller Basic Auth credentials with a
// probe request, then attaches them to every call.
type lmAuthenticator struct {
	baseURL        string
	username       string
	password       string
	customerNumber string
}

func (a *lmAuthenticator) Authenticate(ctx context.Context, hc *http.Client) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/ping", nil)
	if err != nil {
		return time.Time{}, err
	}
	a.Apply(req)

	resp, err := hc.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("credential probe returned %d", resp.StatusCode)
	}
	return time.Now().Add(lmSessionTTL), nil
}

func (a *lmAuthenticator) Apply(req *http.Request) {
	req.SetBasicAuth(a.username, a.password)
	req.Header.Set("X-Customer-Number", a.customerNumber)
}

// LemvighMullerClient talks to Lemvigh-Müller's product and price API.
type LemvighMullerClient struct {
	base    *BaseClient
	lookups *cachedLookups
}

// NewLemvighMullerClient builds an LM API client. The customer number is
// required: prices are customer-specific.
func NewLemvighMullerClient(creds credentials.Credentials, cache *pricecache.Cache, log *logger.Logger, opts ...ClientOption) (*LemvighMullerClient, error) {
	if creds.APIEndpoint == "" || creds.Username == "" || creds.Password == "" || creds.CustomerNumber == "" {
		return nil, apperr.Config("lemvigh-müller api credentials are incomplete")
	}

	auth := &lmAuthenticator{
		baseURL:        creds.APIEndpoint,
		username:       creds.Username,
		password:       creds.Password,
		customerNumber: creds.CustomerNumber,
	}
	return &LemvighMullerClient{
		base:    NewBaseClient("lm", creds.APIEndpoint, auth, log, opts...),
		lookups: newCachedLookups(cache, "lm", log),
	}, nil
}

// SupplierCode returns the registry code this client serves.
func (c *LemvighMullerClient) SupplierCode() string { return "lm" }

// TestConnection re-runs the credential probe, bypassing the cache.
func (c *LemvighMullerClient) TestConnection(ctx context.Context) error {
	return c.base.Authenticate(ctx)
}

type lmProduct struct {
	ArticleNumber string   `json:"articleNumber"`
	Description   string   `json:"description"`
	Unit          string   `json:"unit"`
	Group         string   `json:"group"`
	Brand         string   `json:"brand"`
	EAN           string   `json:"ean"`
	GrossPrice    *float64 `json:"grossPrice"`
	NetPrice      *float64 `json:"netPrice"`
}

// SearchProducts queries LM's catalog by free text. Failures fall back
// to the last cached result for the query, or an empty result set.
func (c *LemvighMullerClient) SearchProducts(ctx context.Context, query string) (*SearchResult, error) {
	return c.lookups.search(ctx, query, c.fetchSearch)
}

func (c *LemvighMullerClient) fetchSearch(ctx context.Context, query string) (*SearchResult, error) {
	q := url.Values{"search": {query}}
	body, err := c.base.Do(ctx, http.MethodGet, "/api/products", q, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items      []lmProduct `json:"items"`
		TotalCount int         `json:"totalCount"`
		HasMore    bool        `json:"hasMore"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Internal("lemvigh-müller search response is not valid json")
	}

	result := &SearchResult{Total: payload.TotalCount, HasMore: payload.HasMore}
	for _, p := range payload.Items {
		result.Products = append(result.Products, Product{
			SKU:          p.ArticleNumber,
			Name:         p.Description,
			Unit:         p.Unit,
			Category:     p.Group,
			Manufacturer: p.Brand,
			EAN:          p.EAN,
			CostPrice:    p.NetPrice,
			ListPrice:    p.GrossPrice,
		})
	}
	if result.Total == 0 {
		result.Total = len(result.Products)
	}
	return result, nil
}

// GetProductPrice fetches one customer-specific price, write-through
// cached with stale fallback.
func (c *LemvighMullerClient) GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	return c.lookups.get(ctx, sku, c.fetchPrice)
}

func (c *LemvighMullerClient) fetchPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	body, err := c.base.Do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(sku)+"/price", nil, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ArticleNumber string   `json:"articleNumber"`
		NetPrice      *float64 `json:"netPrice"`
		GrossPrice    *float64 `json:"grossPrice"`
		Currency      string   `json:"currency"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Internal("lemvigh-müller price response is not valid json")
	}

	return &ProductPrice{
		SKU:         sku,
		CostPrice:   payload.NetPrice,
		ListPrice:   payload.GrossPrice,
		Currency:    payload.Currency,
		RetrievedAt: time.Now(),
	}, nil
}

// GetProductPrices fetches several prices with the shared bounded fan-out.
func (c *LemvighMullerClient) GetProductPrices(ctx context.Context, skus []string) (map[string]ProductPrice, error) {
	return fetchPrices(ctx, skus, c.GetProductPrice)
}

var _ Client = (*LemvighMullerClient)(nil)
