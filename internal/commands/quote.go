package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quote-feed/internal/fetcher"
	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider/alphavantage"
	"github.com/quote-feed/internal/provider/binance"
	"github.com/quote-feed/internal/provider/coingecko"
	"github.com/quote-feed/internal/provider/nse"
	"github.com/quote-feed/internal/provider/yahoo"
	"github.com/quote-feed/internal/worker"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/logger"
	"github.com/quote-feed/pkg/models"
)

var quoteHistoryDays int

// quoteCmd resolves a single symbol through the fallback chain and
// prints the result, without starting the server.
var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Fetch a single quote and print it as JSON",
	Long: `Resolve one symbol through the provider fallback chain and print the
normalized quote. With --days the daily candles are printed too.

Examples:
  quote-feed quote BTC
  quote-feed quote RELIANCE.NS
  quote-feed quote GOLD --days 7`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().IntVarP(&quoteHistoryDays, "days", "d", 0, "Also fetch this many days of history")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Logging.Level = "error"
	if verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	pool := worker.NewPool(cfg.Poller.Workers, log)
	yahooClient := yahoo.New(pool, log)

	fetchers := map[models.AssetClass]fetcher.Fetcher{
		models.AssetClassEquity: fetcher.NewEquity(
			alphavantage.New(&cfg.Providers.AlphaVantage, log),
			nse.New(&cfg.Providers.NSE, log),
			yahooClient, nil, &cfg.Poller, log,
		),
		models.AssetClassCrypto: fetcher.NewCrypto(
			binance.New(&cfg.Providers.Binance, log),
			coingecko.New(&cfg.Providers.CoinGecko, log),
			nil, &cfg.Poller, log,
		),
		models.AssetClassCommodity: fetcher.NewCommodity(yahooClient, nil, &cfg.Poller, log),
	}

	symbol := args[0]
	class := normalize.Classify(symbol)
	f, ok := fetchers[class]
	if !ok {
		return fmt.Errorf("unrecognized symbol %q", symbol)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quote := f.Quote(ctx, symbol)
	printJSON(quote)

	if quoteHistoryDays > 0 {
		bars := f.History(ctx, symbol, quoteHistoryDays)
		printJSON(map[string]interface{}{
			"bars":  bars,
			"count": len(bars),
		})
	}

	return nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("marshal error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
