package fetcher

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

type stubProvider struct {
	name    string
	res     provider.Result
	err     error
	bars    []models.Bar
	histErr error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	s.calls++
	return s.res, s.err
}

func (s *stubProvider) History(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	return s.bars, s.histErr
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testPollerConfig() *config.PollerConfig {
	return &config.PollerConfig{
		Interval:     15 * time.Second,
		FetchTimeout: time.Second,
		Workers:      2,
	}
}

func TestEquityChainAdvancesPastZeroPrice(t *testing.T) {
	t.Parallel()

	av := &stubProvider{name: "AlphaVantage", res: provider.Result{Price: 0}}
	nseStub := &stubProvider{name: "NSE_DIRECT", res: provider.Result{Price: 100.004, ChangePct: 0.456}}
	yf := &stubProvider{name: "yahoo", err: errors.New("unreachable")}

	f := NewEquity(av, nseStub, yf, nil, testPollerConfig(), testLogger())
	quote := f.Quote(context.Background(), "RELIANCE")

	require.Equal(t, "RELIANCE.NS", quote.Asset)
	require.Equal(t, 100.00, quote.Price)
	require.Equal(t, 0.46, quote.ChangePct)
	require.Equal(t, "NSE_DIRECT", quote.Source)
	require.Equal(t, "INR", quote.Currency)
	require.False(t, quote.IsMock)

	require.Equal(t, 1, av.calls)
	require.Equal(t, 1, nseStub.calls)
	require.Zero(t, yf.calls, "chain must stop at first success")
}

func TestEquityTotalFailureServesMock(t *testing.T) {
	t.Parallel()

	failing := errors.New("provider down")
	av := &stubProvider{name: "AlphaVantage", err: failing}
	nseStub := &stubProvider{name: "NSE_DIRECT", err: failing}
	yf := &stubProvider{name: "yahoo", err: failing}

	f := NewEquity(av, nseStub, yf, nil, testPollerConfig(), testLogger())
	quote := f.Quote(context.Background(), "RELIANCE.NS")

	require.True(t, quote.IsMock)
	require.Equal(t, models.SourceMock, quote.Source)
	require.Greater(t, quote.Price, 0.0)
	require.Equal(t, models.AssetClassEquity, quote.Class)
}

func TestCryptoFallbackServesCachedBeforeMock(t *testing.T) {
	t.Parallel()

	binanceStub := &stubProvider{name: "Binance", res: provider.Result{Price: 50000.00, ChangePct: 1.5}}
	geckoStub := &stubProvider{name: "CoinGecko", err: errors.New("rate limited")}

	f := NewCrypto(binanceStub, geckoStub, nil, testPollerConfig(), testLogger())

	live := f.Quote(context.Background(), "BTC")
	require.Equal(t, "BTC-USD", live.Asset)
	require.Equal(t, 50000.00, live.Price)
	require.Equal(t, "Binance", live.Source)

	// Providers go dark; the last live observation must be replayed.
	binanceStub.err = errors.New("down")
	binanceStub.res = provider.Result{}

	cached := f.Quote(context.Background(), "BTC")
	require.Equal(t, models.SourceCached, cached.Source)
	require.Equal(t, 50000.00, cached.Price)
	require.False(t, cached.IsMock)
}

func TestCachedQuotesNeverReenterCache(t *testing.T) {
	t.Parallel()

	log := testLogger().WithField("component", "test")
	cache := newFallbackCache(nil, log)

	cache.put(context.Background(), &models.Quote{Asset: "X", Price: 10, Source: "live"})
	replay := cache.get(context.Background(), "X")
	require.Equal(t, models.SourceCached, replay.Source)

	// Re-admitting the replay must not overwrite the original source.
	cache.put(context.Background(), replay)
	again := cache.get(context.Background(), "X")
	require.Equal(t, 10.0, again.Price)

	mock := &models.Quote{Asset: "Y", Price: 100, IsMock: true, Source: models.SourceMock}
	cache.put(context.Background(), mock)
	require.Nil(t, cache.get(context.Background(), "Y"))
}

func TestCommodityLocalization(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", res: provider.Result{Price: 2000.00, ChangePct: 0.25, Currency: "USD"}}

	f := NewCommodity(yf, nil, testPollerConfig(), testLogger())
	quote := f.Quote(context.Background(), "GOLD")

	require.Equal(t, "GC=F", quote.Asset)
	require.Equal(t, "USD", quote.Currency)
	require.NotNil(t, quote.Localized)
	require.Equal(t, "INR", quote.Localized.Currency)
	require.Equal(t, "10g", quote.Localized.Unit)
	// 2000 * 83.50 * 0.321507 rounded to two places.
	require.InDelta(t, 53691.67, quote.Localized.Price, 0.01)
	require.Contains(t, quote.Localized.Display, "Chennai Gold Census")
}

func TestCommoditySilverLocalizationUnit(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", res: provider.Result{Price: 25.00, Currency: "USD"}}

	f := NewCommodity(yf, nil, testPollerConfig(), testLogger())
	quote := f.Quote(context.Background(), "SILVER")

	require.Equal(t, "SI=F", quote.Asset)
	require.NotNil(t, quote.Localized)
	require.Equal(t, "1kg", quote.Localized.Unit)
	require.Contains(t, quote.Localized.Display, "Mumbai Spot Silver")
}

func TestCommodityNonMetalHasNoLocalization(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", res: provider.Result{Price: 75.00, Currency: "USD"}}

	f := NewCommodity(yf, nil, testPollerConfig(), testLogger())
	quote := f.Quote(context.Background(), "CRUDE")

	require.Equal(t, "CL=F", quote.Asset)
	require.Nil(t, quote.Localized)
}

func TestCommodityMetalAccessors(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", res: provider.Result{Price: 2000.00, Currency: "USD"}}
	f := NewCommodity(yf, nil, testPollerConfig(), testLogger())

	gold := f.ChennaiGold(context.Background())
	require.Equal(t, "GC=F", gold.Asset)
	require.NotNil(t, gold.Localized)
	require.Contains(t, gold.Localized.Display, "Chennai Gold Census")

	silver := f.MumbaiSilver(context.Background())
	require.Equal(t, "SI=F", silver.Asset)
	require.NotNil(t, silver.Localized)
	require.Contains(t, silver.Localized.Display, "Mumbai Spot Silver")
}

func TestCommodityAllCoversEveryContract(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", res: provider.Result{Price: 50.00, Currency: "USD"}}
	f := NewCommodity(yf, nil, testPollerConfig(), testLogger())

	quotes := f.All(context.Background())
	require.Len(t, quotes, len(commodityFutures))
	require.Equal(t, "GC=F", quotes[0].Asset)
	require.Equal(t, "SI=F", quotes[1].Asset)
	for _, q := range quotes {
		require.Greater(t, q.Price, 0.0)
		require.False(t, q.IsMock)
	}
}

func TestCryptoHistoryFallsBackToCoinGecko(t *testing.T) {
	t.Parallel()

	geckoBars := []models.Bar{{Time: "2026-08-01", Close: 97000, Approximate: true}}
	binanceStub := &stubProvider{name: "Binance", histErr: errors.New("banned")}
	geckoStub := &stubProvider{name: "CoinGecko", bars: geckoBars}

	f := NewCrypto(binanceStub, geckoStub, nil, testPollerConfig(), testLogger())
	bars := f.History(context.Background(), "BTC-USD", 30)

	require.Len(t, bars, 1)
	require.True(t, bars[0].Approximate)
}

func TestHistoryTotalFailureReturnsEmpty(t *testing.T) {
	t.Parallel()

	yf := &stubProvider{name: "yahoo", histErr: errors.New("down")}

	f := NewEquity(yf, yf, yf, nil, testPollerConfig(), testLogger())
	require.Empty(t, f.History(context.Background(), "TCS", 30))
}

func TestFuturesCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "GC=F", FuturesCode("gold"))
	require.Equal(t, "SI=F", FuturesCode("SILVER"))
	require.Equal(t, "GC=F", FuturesCode("GC=F"))
	require.Equal(t, "NG=F", FuturesCode("natgas"))
}
