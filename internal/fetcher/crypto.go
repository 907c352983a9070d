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

// Crypto resolves cryptocurrencies. Canonical asset form is
// <BASE>-USD priced in USD. Binance is preferred for both quotes and
// candles, with CoinGecko as the fallback.
type Crypto struct {
	binance   provider.HistoryProvider
	coingecko provider.HistoryProvider
	chain     *chain
	fallback  *fallbackCache
	logger    *logrus.Entry
}

func NewCrypto(binance, coingecko provider.HistoryProvider, store FallbackStore, cfg *config.PollerConfig, log *logrus.Logger) *Crypto {
	entry := logger.WithComponent(log, "fetcher.crypto")
	return &Crypto{
		binance:   binance,
		coingecko: coingecko,
		chain:     &chain{timeout: cfg.FetchTimeout, logger: entry},
		fallback:  newFallbackCache(store, entry),
		logger:    entry,
	}
}

func (f *Crypto) Class() models.AssetClass {
	return models.AssetClassCrypto
}

func (f *Crypto) Quote(ctx context.Context, symbol string) *models.Quote {
	base := normalize.CryptoBase(symbol)
	asset := base + "-USD"

	steps := []step{
		{f.binance, base},
		{f.coingecko, base},
	}

	if res, source, ok := f.chain.run(ctx, steps); ok {
		quote := newQuote(asset, models.AssetClassCrypto, res, source)
		quote.Currency = "USD"
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

func (f *Crypto) History(ctx context.Context, symbol string, days int) []models.Bar {
	base := normalize.CryptoBase(symbol)

	historyCtx, cancel := context.WithTimeout(ctx, 2*f.chain.timeout)
	defer cancel()

	bars, err := f.binance.History(historyCtx, base, days)
	if err == nil && len(bars) > 0 {
		return bars
	}
	if err != nil {
		f.logger.WithError(err).WithField("asset", base).Debug("Binance history failed, trying CoinGecko")
	}

	bars, err = f.coingecko.History(historyCtx, base, days)
	if err != nil {
		f.logger.WithError(err).WithField("asset", base).Warn("History fetch failed")
		return nil
	}
	return bars
}

var _ Fetcher = (*Crypto)(nil)
