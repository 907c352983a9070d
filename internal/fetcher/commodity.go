package fetcher

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/logger"
	"github.com/quote-feed/pkg/models"
)

// commodityFutures maps friendly commodity names to the Yahoo futures
// contracts that price them.
var commodityFutures = map[string]string{
	"GOLD":     "GC=F",
	"SILVER":   "SI=F",
	"CRUDE":    "CL=F",
	"NATGAS":   "NG=F",
	"COPPER":   "HG=F",
	"PLATINUM": "PL=F",
}

// commodityOrder fixes the iteration order for the all-commodities
// surface.
var commodityOrder = []string{"GOLD", "SILVER", "CRUDE", "NATGAS", "COPPER", "PLATINUM"}

// mcxProfile converts a USD-per-ounce futures price into the unit and
// currency Indian spot markets quote in.
type mcxProfile struct {
	factor   float64
	usdToINR float64
	unit     string
	display  string
}

// Gold trades per 10 grams and silver per kilogram on Indian spot
// markets; the factors convert from the USD per troy ounce futures
// quote. The USD/INR rate is a fixed operational constant, not a live
// FX feed.
var mcxProfiles = map[string]mcxProfile{
	"GC=F": {factor: 0.321507, usdToINR: 83.50, unit: "10g", display: "Chennai Gold Census"},
	"SI=F": {factor: 35.274, usdToINR: 83.50, unit: "1kg", display: "Mumbai Spot Silver"},
}

// Commodity resolves commodity futures through Yahoo Finance. Canonical
// asset form is the futures code (GC=F) priced in USD, with an INR
// localization attached for gold and silver.
type Commodity struct {
	yahoo    provider.HistoryProvider
	chain    *chain
	fallback *fallbackCache
	logger   *logrus.Entry
}

func NewCommodity(yahoo provider.HistoryProvider, store FallbackStore, cfg *config.PollerConfig, log *logrus.Logger) *Commodity {
	entry := logger.WithComponent(log, "fetcher.commodity")
	return &Commodity{
		yahoo:    yahoo,
		chain:    &chain{timeout: cfg.FetchTimeout, logger: entry},
		fallback: newFallbackCache(store, entry),
		logger:   entry,
	}
}

func (f *Commodity) Class() models.AssetClass {
	return models.AssetClassCommodity
}

// FuturesCode resolves a friendly name (GOLD) or a futures code
// (GC=F) to the canonical contract symbol.
func FuturesCode(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if code, ok := commodityFutures[upper]; ok {
		return code
	}
	return upper
}

func (f *Commodity) Quote(ctx context.Context, symbol string) *models.Quote {
	asset := FuturesCode(symbol)

	steps := []step{
		{f.yahoo, asset},
	}

	if res, source, ok := f.chain.run(ctx, steps); ok {
		quote := newQuote(asset, models.AssetClassCommodity, res, source)
		quote.Currency = "USD"
		attachLocalization(quote)
		f.fallback.put(ctx, quote)
		return quote
	}

	if cached := f.fallback.get(ctx, asset); cached != nil {
		f.logger.WithField("asset", asset).Info("All providers failed, serving cached quote")
		return cached
	}

	f.logger.WithField("asset", asset).Warn("All providers failed with no cache, serving mock quote")
	mock := normalize.MockQuote(asset)
	attachLocalization(mock)
	return mock
}

// ChennaiGold resolves the gold quote with its Chennai spot-market
// localization attached.
func (f *Commodity) ChennaiGold(ctx context.Context) *models.Quote {
	return f.Quote(ctx, "GOLD")
}

// MumbaiSilver resolves the silver quote with its Mumbai spot-market
// localization attached.
func (f *Commodity) MumbaiSilver(ctx context.Context) *models.Quote {
	return f.Quote(ctx, "SILVER")
}

// All resolves every tracked commodity in a fixed order. Each entry
// goes through the same fallback ladder as a single Quote call, so
// recognized commodities always produce an entry.
func (f *Commodity) All(ctx context.Context) []*models.Quote {
	quotes := make([]*models.Quote, 0, len(commodityOrder))
	for _, name := range commodityOrder {
		quotes = append(quotes, f.Quote(ctx, name))
	}
	return quotes
}

func (f *Commodity) History(ctx context.Context, symbol string, days int) []models.Bar {
	asset := FuturesCode(symbol)

	historyCtx, cancel := context.WithTimeout(ctx, 2*f.chain.timeout)
	defer cancel()

	bars, err := f.yahoo.History(historyCtx, asset, days)
	if err != nil {
		f.logger.WithError(err).WithField("asset", asset).Warn("History fetch failed")
		return nil
	}
	return bars
}

// attachLocalization decorates gold and silver quotes with the Indian
// spot-market price derived from the USD futures price.
func attachLocalization(quote *models.Quote) {
	profile, ok := mcxProfiles[quote.Asset]
	if !ok || quote.Price <= 0 {
		return
	}

	inrPrice := normalize.Round2(quote.Price * profile.usdToINR * profile.factor)
	quote.Localized = &models.LocalizedPrice{
		Price:    inrPrice,
		Currency: "INR",
		Unit:     profile.unit,
		Display:  profile.display + ": " + normalize.FormatINR(inrPrice) + " / " + profile.unit,
	}
}

var _ Fetcher = (*Commodity)(nil)
