package fetcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/logger"
	"github.com/quote-feed/pkg/models"
)

// Equity resolves NSE-listed equities. Canonical asset form is
// <TICKER>.NS priced in INR. The chain prefers AlphaVantage, then the
// NSE site directly, then Yahoo Finance.
type Equity struct {
	alphaVantage provider.Provider
	nse          provider.Provider
	yahoo        provider.HistoryProvider
	chain        *chain
	fallback     *fallbackCache
	logger       *logrus.Entry
}

func NewEquity(av, nse provider.Provider, yahoo provider.HistoryProvider, store FallbackStore, cfg *config.PollerConfig, log *logrus.Logger) *Equity {
	entry := logger.WithComponent(log, "fetcher.equity")
	return &Equity{
		alphaVantage: av,
		nse:          nse,
		yahoo:        yahoo,
		chain:        &chain{timeout: cfg.FetchTimeout, logger: entry},
		fallback:     newFallbackCache(store, entry),
		logger:       entry,
	}
}

func (f *Equity) Class() models.AssetClass {
	return models.AssetClassEquity
}

func (f *Equity) Quote(ctx context.Context, symbol string) *models.Quote {
	base := normalize.EquityBase(symbol)
	asset := base + ".NS"

	steps := []step{
		{f.alphaVantage, base + ".BSE"},
		{f.nse, base},
		{f.yahoo, asset},
	}

	if res, source, ok := f.chain.run(ctx, steps); ok {
		quote := newQuote(asset, models.AssetClassEquity, res, source)
		quote.Currency = "INR"
		f.fallback.put(ctx, quote)
		return quote
	}

	if cached := f.fallback.get(ctx, asset); cached != nil {
		f.logger.WithField("asset", asset).Info("All providers failed, serving cached quote")
		return cached
	}

	f.logger.WithField("asset", asset).Warn("All providers failed with no cache, serving mock quote")
	return normalize.MockQuote(asset)
}

func (f *Equity) History(ctx context.Context, symbol string, days int) []models.Bar {
	asset := normalize.EquityBase(symbol) + ".NS"

	historyCtx, cancel := context.WithTimeout(ctx, 2*f.chain.timeout)
	defer cancel()

	bars, err := f.yahoo.History(historyCtx, asset, days)
	if err != nil {
		f.logger.WithError(err).WithField("asset", asset).Warn("History fetch failed")
		return nil
	}
	return bars
}

var _ Fetcher = (*Equity)(nil)
