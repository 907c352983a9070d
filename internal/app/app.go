package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/api"
	"github.com/quote-feed/internal/cache"
	"github.com/quote-feed/internal/fetcher"
	"github.com/quote-feed/internal/messaging"
	"github.com/quote-feed/internal/poller"
	"github.com/quote-feed/internal/provider/alphavantage"
	"github.com/quote-feed/internal/provider/binance"
	"github.com/quote-feed/internal/provider/coingecko"
	"github.com/quote-feed/internal/provider/nse"
	"github.com/quote-feed/internal/provider/yahoo"
	"github.com/quote-feed/internal/worker"
	"github.com/quote-feed/pkg/config"
)

// App wires the quote engine together: providers, fetchers, scheduler,
// broadcast sink, and the read API.
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	wg     sync.WaitGroup

	redisCache *cache.RedisClient
	natsClient *messaging.NATSClient
	scheduler  *poller.Scheduler
	apiServer  *api.Server
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Initialize builds every component. Optional infrastructure (Redis,
// NATS) failing to connect is downgraded, not fatal: the engine still
// serves quotes from memory.
func (a *App) Initialize() error {
	a.initializeCache()

	if err := a.initializeMessaging(); err != nil {
		a.logger.WithError(err).Warn("Broadcast sink unavailable, quotes will not be published")
	}

	a.initializeScheduler()
	a.initializeAPIServer()

	return nil
}

func (a *App) initializeCache() {
	if !a.cfg.Redis.Enabled {
		return
	}

	redisCache, err := cache.NewRedisClient(&a.cfg.Redis, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("Redis unavailable, fallback cache will be memory-only")
		return
	}
	a.redisCache = redisCache
}

func (a *App) initializeMessaging() error {
	natsClient, err := messaging.NewNATSClient(&a.cfg.NATS, a.logger)
	if err != nil {
		return err
	}
	a.natsClient = natsClient
	return nil
}

func (a *App) initializeScheduler() {
	pool := worker.NewPool(a.cfg.Poller.Workers, a.logger)

	yahooClient := yahoo.New(pool, a.logger)
	avClient := alphavantage.New(&a.cfg.Providers.AlphaVantage, a.logger)
	nseClient := nse.New(&a.cfg.Providers.NSE, a.logger)
	binanceClient := binance.New(&a.cfg.Providers.Binance, a.logger)
	coingeckoClient := coingecko.New(&a.cfg.Providers.CoinGecko, a.logger)

	// nil interface check happens inside the fallback cache
	var store fetcher.FallbackStore
	if a.redisCache != nil {
		store = a.redisCache
	}

	fetchers := []fetcher.Fetcher{
		fetcher.NewEquity(avClient, nseClient, yahooClient, store, &a.cfg.Poller, a.logger),
		fetcher.NewCrypto(binanceClient, coingeckoClient, store, &a.cfg.Poller, a.logger),
		fetcher.NewCommodity(yahooClient, store, &a.cfg.Poller, a.logger),
	}

	var sink poller.Sink
	if a.natsClient != nil {
		sink = a.natsClient
	}

	a.scheduler = poller.NewScheduler(&a.cfg.Poller, fetchers, sink, a.logger)
	a.scheduler.Seed(&a.cfg.Watchlist)
}

func (a *App) initializeAPIServer() {
	var broadcaster api.Broadcaster
	if a.natsClient != nil {
		broadcaster = a.natsClient
	}
	var cacheHealth api.CacheHealth
	if a.redisCache != nil {
		cacheHealth = a.redisCache
	}
	a.apiServer = api.NewServer(a.cfg, a.logger, a.scheduler, broadcaster, cacheHealth)
}

// Start launches the poll loop and the HTTP server.
func (a *App) Start() error {
	a.scheduler.Start()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil {
			a.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	a.logger.Info("Application started")
	return nil
}

// Stop shuts everything down in reverse order of startup.
func (a *App) Stop() error {
	a.logger.Info("Stopping application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Stop(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("HTTP server shutdown failed")
		}
	}

	a.scheduler.Stop()

	if a.natsClient != nil {
		if err := a.natsClient.Drain(); err != nil {
			a.logger.WithError(err).Warn("NATS drain failed")
		}
		a.natsClient.Close()
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.logger.WithError(err).Warn("Redis close failed")
		}
	}

	a.wg.Wait()
	a.logger.Info("Application stopped")
	return nil
}
