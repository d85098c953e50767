package apiclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

type clientKey struct {
	supplierID uuid.UUID
	code       string
}

// Factory builds and caches supplier API clients. Clients are keyed by
// supplier ID and code so two suppliers sharing an adapter keep separate
// sessions and rate limit state.
type Factory struct {
	store credentials.Store
	cache *pricecache.Cache
	log   *logger.Logger
	opts  []ClientOption

	mu      sync.Mutex
	clients map[clientKey]Client
}

// NewFactory creates a client factory. The options apply to every client
// it builds.
func NewFactory(store credentials.Store, cache *pricecache.Cache, log *logger.Logger, opts ...ClientOption) *Factory {
	return &Factory{
		store:   store,
		cache:   cache,
		log:     log,
		opts:    opts,
		clients: make(map[clientKey]Client),
	}
}

// Get returns the client for the supplier, building it on first use from
// the stored API credentials.
func (f *Factory) Get(ctx context.Context, supplierID uuid.UUID, code string) (Client, error) {
	key := clientKey{supplierID: supplierID, code: code}

	f.mu.Lock()
	client, ok := f.clients[key]
	f.mu.Unlock()
	if ok {
		return client, nil
	}

	creds, err := f.store.LoadDecrypted(ctx, supplierID, credentials.TypeAPI)
	if err != nil {
		return nil, err
	}

	client, err = f.build(code, creds)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	// Another caller may have built it concurrently; first one wins.
	if existing, ok := f.clients[key]; ok {
		client = existing
	} else {
		f.clients[key] = client
	}
	f.mu.Unlock()
	return client, nil
}

// Evict drops a cached client, forcing a rebuild with fresh credentials
// on the next Get.
func (f *Factory) Evict(supplierID uuid.UUID, code string) {
	f.mu.Lock()
	delete(f.clients, clientKey{supplierID: supplierID, code: code})
	f.mu.Unlock()
}

func (f *Factory) build(code string, creds credentials.Credentials) (Client, error) {
	switch code {
	case "solar":
		return NewSolarClient(creds, f.cache, f.log, f.opts...)
	case "lm":
		return NewLemvighMullerClient(creds, f.cache, f.log, f.opts...)
	default:
		return nil, apperr.Config(fmt.Sprintf("no api client for supplier %q", code))
	}
}
