package poller

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quote-feed/internal/fetcher"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

type stubFetcher struct {
	class    models.AssetClass
	panicOn  string
	mu       sync.Mutex
	requests []string
}

func (s *stubFetcher) Class() models.AssetClass { return s.class }

func (s *stubFetcher) Quote(ctx context.Context, symbol string) *models.Quote {
	s.mu.Lock()
	s.requests = append(s.requests, symbol)
	s.mu.Unlock()

	if symbol == s.panicOn {
		panic("provider blew up")
	}
	return &models.Quote{
		Asset:     symbol,
		Price:     100.00,
		Class:     s.class,
		Currency:  "USD",
		Sentiment: 0.50,
		Source:    "stub",
		Timestamp: time.Now().UTC(),
	}
}

func (s *stubFetcher) History(ctx context.Context, symbol string, days int) []models.Bar {
	return []models.Bar{{Time: "2026-08-01", Close: 100}}
}

type recordingSink struct {
	mu      sync.Mutex
	quotes  []*models.Quote
	failErr error
}

func (r *recordingSink) PublishQuote(ctx context.Context, quote *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.quotes = append(r.quotes, quote)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quotes)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testScheduler(fetchers []fetcher.Fetcher, sink Sink) *Scheduler {
	cfg := &config.PollerConfig{
		Interval:     time.Hour, // keep the loop to a single cycle per test
		FetchTimeout: time.Second,
		Workers:      2,
	}
	return NewScheduler(cfg, fetchers, sink, testLogger())
}

func TestTickIsolatesPanics(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{class: models.AssetClassCrypto, panicOn: "ETH-USD"}
	sink := &recordingSink{}
	s := testScheduler([]fetcher.Fetcher{f}, sink)

	s.watchlist.Add(models.AssetClassCrypto, "BTC-USD")
	s.watchlist.Add(models.AssetClassCrypto, "ETH-USD")
	s.watchlist.Add(models.AssetClassCrypto, "SOL-USD")

	s.tick(context.Background())

	// The panicking symbol is skipped; the other two land in the store
	// and reach the sink.
	require.Equal(t, 2, s.store.Len())
	require.Equal(t, 2, sink.count())

	_, ok := s.store.Get("ETH-USD")
	require.False(t, ok)
}

func TestPublishFailureDoesNotBlockStore(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{class: models.AssetClassCrypto}
	sink := &recordingSink{failErr: context.DeadlineExceeded}
	s := testScheduler([]fetcher.Fetcher{f}, sink)

	s.watchlist.Add(models.AssetClassCrypto, "BTC-USD")
	s.tick(context.Background())

	_, ok := s.store.Get("BTC-USD")
	require.True(t, ok, "snapshot must be stored even when publishing fails")
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{class: models.AssetClassCrypto}
	s := testScheduler([]fetcher.Fetcher{f}, nil)
	s.watchlist.Add(models.AssetClassCrypto, "BTC-USD")

	s.Start()
	s.Start() // second call is a no-op

	// Wait for the first cycle to land.
	require.Eventually(t, func() bool {
		_, ok := s.store.Get("BTC-USD")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop() // second call is a no-op

	// Exactly one loop ran one cycle: a second running loop would have
	// polled the symbol at least twice immediately.
	f.mu.Lock()
	polled := len(f.requests)
	f.mu.Unlock()
	require.Equal(t, 1, polled)
}

func TestAddToWatchlistCanonicalizes(t *testing.T) {
	t.Parallel()

	s := testScheduler([]fetcher.Fetcher{
		&stubFetcher{class: models.AssetClassEquity},
		&stubFetcher{class: models.AssetClassCrypto},
		&stubFetcher{class: models.AssetClassCommodity},
	}, nil)

	class, canonical, err := s.AddToWatchlist("btc", models.AssetClassUnknown)
	require.NoError(t, err)
	require.Equal(t, models.AssetClassCrypto, class)
	require.Equal(t, "BTC-USD", canonical)

	class, canonical, err = s.AddToWatchlist("RELIANCE", models.AssetClassUnknown)
	require.NoError(t, err)
	require.Equal(t, models.AssetClassEquity, class)
	require.Equal(t, "RELIANCE.NS", canonical)

	class, canonical, err = s.AddToWatchlist("gold", models.AssetClassUnknown)
	require.NoError(t, err)
	require.Equal(t, models.AssetClassCommodity, class)
	require.Equal(t, "GC=F", canonical)

	// An explicit class wins over classification.
	class, canonical, err = s.AddToWatchlist("XAU", models.AssetClassCommodity)
	require.NoError(t, err)
	require.Equal(t, models.AssetClassCommodity, class)
	require.Equal(t, "XAU", canonical)

	_, _, err = s.AddToWatchlist("", models.AssetClassUnknown)
	require.ErrorIs(t, err, ErrUnrecognizedSymbol)
}

func TestAddToWatchlistDuplicateIsNoop(t *testing.T) {
	t.Parallel()

	s := testScheduler([]fetcher.Fetcher{&stubFetcher{class: models.AssetClassCrypto}}, nil)

	_, _, err := s.AddToWatchlist("BTC", models.AssetClassUnknown)
	require.NoError(t, err)
	_, _, err = s.AddToWatchlist("BTC-USD", models.AssetClassUnknown)
	require.NoError(t, err)

	require.Len(t, s.Watchlist()[models.AssetClassCrypto], 1)
}

func TestGetQuoteBypassesStore(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{class: models.AssetClassCrypto}
	s := testScheduler([]fetcher.Fetcher{f}, nil)

	quote, err := s.GetQuote(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, quote)

	// On-demand resolution must not populate the snapshot store.
	require.Zero(t, s.store.Len())
}

func TestSeedLoadsConfiguredWatchlist(t *testing.T) {
	t.Parallel()

	s := testScheduler([]fetcher.Fetcher{
		&stubFetcher{class: models.AssetClassEquity},
		&stubFetcher{class: models.AssetClassCrypto},
		&stubFetcher{class: models.AssetClassCommodity},
	}, nil)

	s.Seed(&config.WatchlistConfig{
		Equity:    []string{"RELIANCE", "TCS"},
		Crypto:    []string{"BTC", "ETH"},
		Commodity: []string{"GOLD"},
	})

	snapshot := s.Watchlist()
	require.Equal(t, []string{"RELIANCE.NS", "TCS.NS"}, snapshot[models.AssetClassEquity])
	require.Equal(t, []string{"BTC-USD", "ETH-USD"}, snapshot[models.AssetClassCrypto])
	require.Equal(t, []string{"GC=F"}, snapshot[models.AssetClassCommodity])
}

type slowFetcher struct {
	class   models.AssetClass
	delay   time.Duration
	active  int64
	overlap int64
}

func (s *slowFetcher) Class() models.AssetClass { return s.class }

func (s *slowFetcher) Quote(ctx context.Context, symbol string) *models.Quote {
	if atomic.AddInt64(&s.active, 1) > 1 {
		atomic.AddInt64(&s.overlap, 1)
	}
	time.Sleep(s.delay)
	atomic.AddInt64(&s.active, -1)
	return &models.Quote{Asset: symbol, Price: 1, Class: s.class, Timestamp: time.Now().UTC()}
}

func (s *slowFetcher) History(ctx context.Context, symbol string, days int) []models.Bar {
	return nil
}

func TestTicksNeverOverlap(t *testing.T) {
	t.Parallel()

	// A fetch slower than the interval must delay the next cycle, not
	// run concurrently with it. With a single symbol any overlap shows
	// up as two in-flight Quote calls.
	f := &slowFetcher{class: models.AssetClassCrypto, delay: 30 * time.Millisecond}
	cfg := &config.PollerConfig{Interval: time.Millisecond, FetchTimeout: time.Second, Workers: 1}
	s := NewScheduler(cfg, []fetcher.Fetcher{f}, nil, testLogger())
	s.watchlist.Add(models.AssetClassCrypto, "BTC-USD")

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	require.Zero(t, atomic.LoadInt64(&f.overlap))
}

func TestStoreReturnsDefensiveCopies(t *testing.T) {
	t.Parallel()

	store := NewStore()
	original := &models.Quote{Asset: "BTC-USD", Price: 100}
	store.Set(original)

	original.Price = 999
	stored, ok := store.Get("BTC-USD")
	require.True(t, ok)
	require.Equal(t, 100.0, stored.Price)

	stored.Price = 1
	again, _ := store.Get("BTC-USD")
	require.Equal(t, 100.0, again.Price)
}

func TestStoreAllOrdered(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Set(&models.Quote{Asset: "ETH-USD"})
	store.Set(&models.Quote{Asset: "BTC-USD"})
	store.Set(&models.Quote{Asset: "SOL-USD"})

	all := store.All()
	require.Len(t, all, 3)
	require.Equal(t, "BTC-USD", all[0].Asset)
	require.Equal(t, "ETH-USD", all[1].Asset)
	require.Equal(t, "SOL-USD", all[2].Asset)
}
