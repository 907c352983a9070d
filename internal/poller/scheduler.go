package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/fetcher"
	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/logger"
	"github.com/quote-feed/pkg/models"
)

// ErrUnrecognizedSymbol is returned when a symbol cannot be mapped to
// any supported asset class.
var ErrUnrecognizedSymbol = errors.New("unrecognized symbol")

// Sink receives every quote produced by a poll cycle. Publish failures
// are logged and never interrupt polling.
type Sink interface {
	PublishQuote(ctx context.Context, quote *models.Quote) error
}

// Scheduler drives the poll loop: every interval it resolves a quote
// for each watched symbol, stores the snapshot, and hands the quote to
// the sink. Cycles never overlap; the next interval starts counting
// only after the previous cycle finishes.
type Scheduler struct {
	cfg       *config.PollerConfig
	fetchers  map[models.AssetClass]fetcher.Fetcher
	watchlist *Watchlist
	store     *Store
	sink      Sink
	logger    *logrus.Entry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(cfg *config.PollerConfig, fetchers []fetcher.Fetcher, sink Sink, log *logrus.Logger) *Scheduler {
	byClass := make(map[models.AssetClass]fetcher.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byClass[f.Class()] = f
	}

	return &Scheduler{
		cfg:       cfg,
		fetchers:  byClass,
		watchlist: NewWatchlist(),
		store:     NewStore(),
		sink:      sink,
		logger:    logger.WithComponent(log, "poller"),
	}
}

// Seed loads the configured watchlist. Symbols are canonicalized the
// same way AddToWatchlist canonicalizes them.
func (s *Scheduler) Seed(cfg *config.WatchlistConfig) {
	for _, symbol := range cfg.Equity {
		s.watchlist.Add(models.AssetClassEquity, normalize.EquityBase(symbol)+".NS")
	}
	for _, symbol := range cfg.Crypto {
		s.watchlist.Add(models.AssetClassCrypto, normalize.CryptoBase(symbol)+"-USD")
	}
	for _, symbol := range cfg.Commodity {
		s.watchlist.Add(models.AssetClassCommodity, fetcher.FuturesCode(symbol))
	}
	s.logger.WithField("symbols", s.watchlist.Len()).Info("Watchlist seeded")
}

// Start launches the poll loop. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
	s.logger.WithField("interval", s.cfg.Interval).Info("Poll scheduler started")
}

// Stop halts the loop and waits for the in-flight cycle to finish.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.running = false
	s.logger.Info("Poll scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// tick runs one poll cycle. Symbols within a cycle poll concurrently;
// a panic while polling one symbol is contained to that symbol.
func (s *Scheduler) tick(ctx context.Context) {
	started := time.Now()
	snapshot := s.watchlist.Snapshot()

	var wg sync.WaitGroup
	polled := 0
	for class, symbols := range snapshot {
		f, ok := s.fetchers[class]
		if !ok {
			continue
		}
		for _, symbol := range symbols {
			wg.Add(1)
			polled++
			go s.pollSymbol(ctx, &wg, f, symbol)
		}
	}
	wg.Wait()

	if polled > 0 {
		s.logger.WithFields(logger.Fields{
			"symbols": polled,
			"took":    time.Since(started).Round(time.Millisecond),
		}).Debug("Poll cycle complete")
	}
}

func (s *Scheduler) pollSymbol(ctx context.Context, wg *sync.WaitGroup, f fetcher.Fetcher, symbol string) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logger.Fields{
				"symbol": symbol,
				"panic":  r,
			}).Error("Recovered from panic while polling symbol")
		}
	}()

	quote := f.Quote(ctx, symbol)
	s.store.Set(quote)

	if s.sink != nil {
		if err := s.sink.PublishQuote(ctx, quote); err != nil {
			s.logger.WithError(err).WithField("asset", quote.Asset).Warn("Quote publish failed")
		}
	}
}

// AddToWatchlist canonicalizes a symbol and registers it for polling.
// When class is UNKNOWN (or invalid) the symbol is classified first.
// The quote shows up after the next cycle.
func (s *Scheduler) AddToWatchlist(symbol string, class models.AssetClass) (models.AssetClass, string, error) {
	if !class.Valid() || class == models.AssetClassUnknown {
		class = normalize.Classify(symbol)
	}
	if class == models.AssetClassUnknown {
		return class, "", ErrUnrecognizedSymbol
	}

	canonical := s.canonicalize(class, symbol)
	if s.watchlist.Add(class, canonical) {
		s.logger.WithFields(logger.Fields{
			"asset": canonical,
			"class": class,
		}).Info("Symbol added to watchlist")
	}
	return class, canonical, nil
}

func (s *Scheduler) canonicalize(class models.AssetClass, symbol string) string {
	switch class {
	case models.AssetClassEquity:
		return normalize.EquityBase(symbol) + ".NS"
	case models.AssetClassCrypto:
		return normalize.CryptoBase(symbol) + "-USD"
	case models.AssetClassCommodity:
		return fetcher.FuturesCode(symbol)
	default:
		return symbol
	}
}

// GetQuote resolves a quote on demand, bypassing the snapshot store so
// the caller always sees a fresh fallback-chain resolution.
func (s *Scheduler) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	class := normalize.Classify(symbol)
	f, ok := s.fetchers[class]
	if !ok {
		return nil, ErrUnrecognizedSymbol
	}
	return f.Quote(ctx, symbol), nil
}

// GetHistory returns daily candles for a symbol. The slice is empty
// when every history source fails.
func (s *Scheduler) GetHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	class := normalize.Classify(symbol)
	f, ok := s.fetchers[class]
	if !ok {
		return nil, ErrUnrecognizedSymbol
	}
	return f.History(ctx, symbol, days), nil
}

// GetLatest returns the stored snapshot for an asset, if any.
func (s *Scheduler) GetLatest(asset string) (*models.Quote, bool) {
	return s.store.Get(asset)
}

// GetAllLatest returns every stored snapshot ordered by asset.
func (s *Scheduler) GetAllLatest() []*models.Quote {
	return s.store.All()
}

// Watchlist returns the current class-to-symbols mapping.
func (s *Scheduler) Watchlist() map[models.AssetClass][]string {
	return s.watchlist.Snapshot()
}
