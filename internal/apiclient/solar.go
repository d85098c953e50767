package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Solar's web API issues a session cookie on login. The API does not
// report an expiry, so the session is refreshed on this interval.
const solarSessionTTL = 20 * time.Minute

const priceFanout = 5

// solarAuthenticator logs in against Solar's session endpoint. The session
// cookie lives in the HTTP client's jar, so Apply has nothing to attach.
type solarAuthenticator struct {
	baseURL  string
	username string
	password string
}

func (a *solarAuthenticator) Authenticate(ctx context.Context, hc *http.Client) (time.Time, error) {
	payload, err := json.Marshal(map[string]string{
		"username": a.username,
		"password": a.password,
	})
	if err != nil {
		return time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("login returned %d", resp.StatusCode)
	}
	return time.Now().Add(solarSessionTTL), nil
}

func (a *solarAuthenticator) Apply(*http.Request) {}

// SolarClient talks to Solar's product and price API.
type SolarClient struct {
	base    *BaseClient
	lookups *cachedLookups
}

// NewSolarClient builds a Solar API client. The endpoint and login come
// from the supplier's stored API credentials.
func NewSolarClient(creds credentials.Credentials, cache *pricecache.Cache, log *logger.Logger, opts ...ClientOption) (*SolarClient, error) {
	if creds.APIEndpoint == "" || creds.Username == "" || creds.Password == "" {
		return nil, apperr.Config("solar api credentials are incomplete")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	auth := &solarAuthenticator{baseURL: creds.APIEndpoint, username: creds.Username, password: creds.Password}
	opts = append([]ClientOption{
		WithHTTPClient(&http.Client{Timeout: 30 * time.Second, Jar: jar}),
	}, opts...)

	return &SolarClient{
		base:    NewBaseClient("solar", creds.APIEndpoint, auth, log, opts...),
		lookups: newCachedLookups(cache, "solar", log),
	}, nil
}

// SupplierCode returns the registry code this client serves.
func (c *SolarClient) SupplierCode() string { return "solar" }

// TestConnection authenticates and probes the API. Deliberately uncached:
// a connection test must report the live state.
func (c *SolarClient) TestConnection(ctx context.Context) error {
	if err := c.base.Authenticate(ctx); err != nil {
		return err
	}
	_, err := c.base.Do(ctx, http.MethodGet, "/account", nil, nil)
	return err
}

type solarProduct struct {
	ProductNumber string   `json:"productNumber"`
	Description   string   `json:"description"`
	Unit          string   `json:"unit"`
	ProductGroup  string   `json:"productGroup"`
	Manufacturer  string   `json:"manufacturer"`
	EANNumber     string   `json:"eanNumber"`
	NetPrice      *float64 `json:"netPrice"`
	ListPrice     *float64 `json:"listPrice"`
}

// SearchProducts queries Solar's catalog by free text. Failures fall back
// to the last cached result for the query, or an empty result set.
func (c *SolarClient) SearchProducts(ctx context.Context, query string) (*SearchResult, error) {
	return c.lookups.search(ctx, query, c.fetchSearch)
}

func (c *SolarClient) fetchSearch(ctx context.Context, query string) (*SearchResult, error) {
	q := url.Values{"query": {query}}
	body, err := c.base.Do(ctx, http.MethodGet, "/products/search", q, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Products []solarProduct `json:"products"`
		Total    int            `json:"total"`
		HasMore  bool           `json:"hasMore"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Internal("solar search response is not valid json")
	}

	result := &SearchResult{Total: payload.Total, HasMore: payload.HasMore}
	for _, p := range payload.Products {
		result.Products = append(result.Products, Product{
			SKU:          p.ProductNumber,
			Name:         p.Description,
			Unit:         p.Unit,
			Category:     p.ProductGroup,
			Manufacturer: p.Manufacturer,
			EAN:          p.EANNumber,
			CostPrice:    p.NetPrice,
			ListPrice:    p.ListPrice,
		})
	}
	if result.Total == 0 {
		result.Total = len(result.Products)
	}
	return result, nil
}

// GetProductPrice fetches one price, write-through cached with stale
// fallback when the API is unreachable.
func (c *SolarClient) GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	return c.lookups.get(ctx, sku, c.fetchPrice)
}

func (c *SolarClient) fetchPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	body, err := c.base.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(sku)+"/price", nil, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ProductNumber string   `json:"productNumber"`
		NetPrice      *float64 `json:"netPrice"`
		ListPrice     *float64 `json:"listPrice"`
		Currency      string   `json:"currency"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Internal("solar price response is not valid json")
	}

	return &ProductPrice{
		SKU:         sku,
		CostPrice:   payload.NetPrice,
		ListPrice:   payload.ListPrice,
		Currency:    payload.Currency,
		RetrievedAt: time.Now(),
	}, nil
}

// GetProductPrices fetches several prices concurrently, at most five in
// flight. SKUs whose lookup fails are left out of the result, so the
// batch degrades to whatever could be answered.
func (c *SolarClient) GetProductPrices(ctx context.Context, skus []string) (map[string]ProductPrice, error) {
	return fetchPrices(ctx, skus, c.GetProductPrice)
}

// fetchPrices is the shared bounded fan-out for batch price lookups. Only
// a canceled context aborts the batch; per-SKU failures are skipped.
func fetchPrices(ctx context.Context, skus []string, get func(context.Context, string) (*ProductPrice, error)) (map[string]ProductPrice, error) {
	results := make(map[string]ProductPrice, len(skus))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(priceFanout)
	for _, sku := range skus {
		g.Go(func() error {
			price, err := get(ctx, sku)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			if price == nil {
				return nil
			}
			mu.Lock()
			results[sku] = *price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

var _ Client = (*SolarClient)(nil)
