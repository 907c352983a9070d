package fetcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/models"
)

// Fetcher resolves quotes and history for one asset class. Quote is
// total: for any syntactically valid symbol it returns a live, cached,
// or mock quote, never an error. History may return an empty slice on
// total failure.
type Fetcher interface {
	Class() models.AssetClass
	Quote(ctx context.Context, symbol string) *models.Quote
	History(ctx context.Context, symbol string, days int) []models.Bar
}

// step pairs a provider with the symbol form it expects. Providers in
// one chain often disagree on symbology (RELIANCE vs RELIANCE.NS).
type step struct {
	provider provider.Provider
	symbol   string
}

// outcome is the tagged result of a single provider attempt.
type outcome struct {
	result provider.Result
	source string
	err    error
}

// chain walks an ordered provider list and returns the first success.
// A provider succeeds only when it returns a strictly positive parsed
// price; everything else advances the chain. Each attempt is bounded
// by the configured per-provider timeout.
type chain struct {
	timeout time.Duration
	logger  *logrus.Entry
}

func (c *chain) run(ctx context.Context, steps []step) (provider.Result, string, bool) {
	for _, s := range steps {
		o := c.attempt(ctx, s)
		if o.err == nil {
			return o.result, o.source, true
		}
		c.logger.WithFields(logrus.Fields{
			"provider": s.provider.Name(),
			"symbol":   s.symbol,
		}).WithError(o.err).Debug("Provider failed, advancing chain")
	}
	return provider.Result{}, "", false
}

func (c *chain) attempt(ctx context.Context, s step) outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := s.provider.Quote(attemptCtx, s.symbol)
	if err == nil && res.Price <= 0 {
		err = provider.ErrNoPrice
	}
	return outcome{result: res, source: s.provider.Name(), err: err}
}

// newQuote shapes a provider result into a canonical quote.
func newQuote(asset string, class models.AssetClass, res provider.Result, source string) *models.Quote {
	price := normalize.Round2(res.Price)
	if price < 0 {
		price = 0
	}

	currency := res.Currency
	if currency == "" {
		currency = "USD"
	}

	return &models.Quote{
		Asset:     asset,
		Price:     price,
		ChangePct: normalize.Round2(res.ChangePct),
		Class:     class,
		Currency:  currency,
		Sentiment: normalize.NeutralSentiment,
		IsMock:    false,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}
