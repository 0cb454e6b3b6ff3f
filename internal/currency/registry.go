// Package currency maintains the session-wide registry of known
// currencies: the native coin, currencies minted from issue transactions,
// and definitions fetched from the node on demand.
package currency

import (
	"context"
	"fmt"
	"sync"

	"sks-explorer/internal/domain"
	"sks-explorer/internal/observability"
)

// DetailsSource fetches asset details from the chain node.
type DetailsSource interface {
	AssetDetails(ctx context.Context, assetID string) (domain.AssetDetails, error)
}

// Registry resolves asset ids to currencies, caching every definition it
// has seen. Definitions for a given id are immutable in practice, so
// concurrent lookups of an unresolved id may each fetch; last write wins.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]domain.Currency
	source DetailsSource
}

// NewRegistry creates a registry backed by the given details source.
func NewRegistry(source DetailsSource) *Registry {
	return &Registry{
		byID:   make(map[string]domain.Currency),
		source: source,
	}
}

// Get resolves an asset id to its currency. The empty id resolves to the
// native currency. Unknown ids are fetched from the node, cached and
// returned; a fetch failure propagates to the caller.
func (r *Registry) Get(ctx context.Context, assetID string) (domain.Currency, error) {
	if assetID == "" {
		return domain.SKS, nil
	}

	r.mu.RLock()
	c, ok := r.byID[assetID]
	r.mu.RUnlock()
	observability.RecordCurrencyLookup(ok)
	if ok {
		return c, nil
	}

	details, err := r.source.AssetDetails(ctx, assetID)
	if err != nil {
		observability.RecordCurrencyFetchError()
		return domain.Currency{}, fmt.Errorf("resolve asset %s: %w", assetID, err)
	}

	c = domain.CurrencyFromDetails(details)
	r.Put(c)
	return r.get(assetID), nil
}

// Put registers a currency by id, overwriting any cached definition.
// Rewrite rules for legacy assets apply here, so a currency minted from a
// transaction payload is subject to the same overrides as a fetched one.
func (r *Registry) Put(c domain.Currency) {
	if c.ID == "" {
		return
	}

	if c.ID == domain.WavesEnterpriseAssetID {
		c.Name = domain.WavesEnterpriseName
		c.Description = domain.WavesEnterpriseDescription
	}

	r.mu.Lock()
	r.byID[c.ID] = c
	r.mu.Unlock()
}

// Known reports whether a definition for the id is already cached.
func (r *Registry) Known(assetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[assetID]
	return ok
}

func (r *Registry) get(assetID string) domain.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[assetID]
}
