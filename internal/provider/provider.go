package provider

import (
	"context"
	"errors"

	"github.com/quote-feed/pkg/models"
)

// ErrNoPrice marks a provider response that parsed but carried no
// usable price (zero, missing, or negative). The fetcher chain treats
// it exactly like an unreachable provider and advances.
var ErrNoPrice = errors.New("provider returned no usable price")

// Result is the fixed parsed shape every vendor adapter must produce
// at its own boundary. No raw payloads travel past a provider.
type Result struct {
	Price     float64
	ChangePct float64
	Currency  string
	Volume    float64
	Name      string
}

// Provider is one step in an asset-class fallback chain. Quote must
// either return a strictly positive parsed price or fail fast; partial
// or ambiguous successes are not permitted.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Result, error)
}

// HistoryProvider is implemented by providers that can serve OHLCV
// bars in addition to point quotes.
type HistoryProvider interface {
	Provider
	History(ctx context.Context, symbol string, days int) ([]models.Bar, error)
}
