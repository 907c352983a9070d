package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

// Client fetches crypto quotes from the CoinGecko public API. The
// free tier allows roughly 30 calls per minute, enforced by a
// ticker-fed token channel.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Entry

	rateLimiter chan struct{}
}

// coinIDs maps base tickers to CoinGecko coin identifiers.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"XRP":   "ripple",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"AVAX":  "avalanche-2",
	"BNB":   "binancecoin",
	"SHIB":  "shiba-inu",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
}

// New creates a new CoinGecko client
func New(cfg *config.CoinGeckoConfig, log *logrus.Logger) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		logger:      log.WithField("component", "coingecko"),
		rateLimiter: make(chan struct{}, 1),
	}

	c.rateLimiter <- struct{}{}
	go c.rateLimitWorker()

	return c
}

// rateLimitWorker refills the token channel at the free-tier pace
// (30 calls/min = 1 call per 2 seconds).
func (c *Client) rateLimitWorker() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		select {
		case c.rateLimiter <- struct{}{}:
		default:
		}
	}
}

func (c *Client) Name() string { return "CoinGecko" }

// Quote fetches the USD simple price for a crypto base symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return provider.Result{}, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return provider.Result{}, ctx.Err()
	}

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return provider.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Result{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	coin := payload[coinID]
	price := normalize.Round2(coin["usd"])
	if price <= 0 {
		return provider.Result{}, provider.ErrNoPrice
	}

	c.logger.WithFields(logrus.Fields{
		"symbol":  symbol,
		"coin_id": coinID,
		"price":   price,
	}).Debug("Fetched price")

	return provider.Result{
		Price:     price,
		ChangePct: normalize.Round2(coin["usd_24h_change"]),
		Currency:  "USD",
		Volume:    normalize.Round2(coin["usd_24h_vol"]),
		Name:      coinID,
	}, nil
}

// marketChart is the /coins/{id}/market_chart response shape.
type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// History derives daily bars from the market-chart price series. Only
// point prices are available here, so open/high/low are synthesized
// with a fixed ±0.5% band and every bar is flagged approximate.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if days <= 0 {
		days = 30
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, coinID, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload marketChart
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Sample every 4th point for a cleaner series.
	bars := make([]models.Bar, 0, len(payload.Prices)/4+1)
	for i, point := range payload.Prices {
		if i%4 != 0 || len(point) < 2 {
			continue
		}
		ts, price := point[0], point[1]
		bars = append(bars, models.Bar{
			Time:        time.Unix(int64(ts)/1000, 0).UTC().Format("2006-01-02"),
			Open:        normalize.Round2(price),
			High:        normalize.Round2(price * 1.005),
			Low:         normalize.Round2(price * 0.995),
			Close:       normalize.Round2(price),
			Volume:      0,
			Approximate: true,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched market chart")

	return bars, nil
}
