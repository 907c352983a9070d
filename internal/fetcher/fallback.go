package fetcher

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/pkg/models"
)

// FallbackStore is an optional durable mirror of the in-memory
// fallback cache. The in-memory copy stays authoritative; the store is
// consulted only on a local miss (fresh process, cold cache).
type FallbackStore interface {
	SetFallback(ctx context.Context, quote *models.Quote) error
	GetFallback(ctx context.Context, asset string) (*models.Quote, error)
}

// fallbackCache remembers the last live quote observed per asset so an
// outage degrades to stale-but-real data instead of synthetic data.
type fallbackCache struct {
	mu      sync.RWMutex
	entries map[string]*models.Quote
	store   FallbackStore
	logger  *logrus.Entry
}

func newFallbackCache(store FallbackStore, logger *logrus.Entry) *fallbackCache {
	return &fallbackCache{
		entries: make(map[string]*models.Quote),
		store:   store,
		logger:  logger,
	}
}

// put records a live quote. Mock and already-cached quotes are never
// admitted, so the cache only ever replays genuine observations.
func (f *fallbackCache) put(ctx context.Context, quote *models.Quote) {
	if quote == nil || quote.IsMock || quote.Source == models.SourceCached {
		return
	}

	f.mu.Lock()
	f.entries[quote.Asset] = quote.Clone()
	f.mu.Unlock()

	if f.store != nil {
		if err := f.store.SetFallback(ctx, quote); err != nil {
			f.logger.WithError(err).WithField("asset", quote.Asset).Warn("Fallback mirror write failed")
		}
	}
}

// get returns the remembered quote for an asset retagged as CACHED, or
// nil when nothing has been observed yet. The cached timestamp is kept
// so consumers can see how stale the observation is.
func (f *fallbackCache) get(ctx context.Context, asset string) *models.Quote {
	f.mu.RLock()
	cached, ok := f.entries[asset]
	f.mu.RUnlock()

	if !ok && f.store != nil {
		mirrored, err := f.store.GetFallback(ctx, asset)
		if err != nil {
			f.logger.WithError(err).WithField("asset", asset).Warn("Fallback mirror read failed")
		} else if mirrored != nil {
			f.mu.Lock()
			f.entries[asset] = mirrored
			f.mu.Unlock()
			cached, ok = mirrored, true
		}
	}

	if !ok {
		return nil
	}

	replay := cached.Clone()
	replay.Source = models.SourceCached
	return replay
}
