package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
)

// Client fetches equity quotes from the Alpha Vantage aggregator API.
// The free tier allows 5 calls per minute, enforced by a ticker-fed
// token channel so a burst of symbols queues instead of erroring.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Entry

	rateLimiter chan struct{}
}

// globalQuote is the GLOBAL_QUOTE response envelope. Alpha Vantage
// returns every numeric field as a string.
type globalQuote struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// New creates a new Alpha Vantage client
func New(cfg *config.AlphaVantageConfig, log *logrus.Logger) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		logger:      log.WithField("component", "alpha-vantage"),
		rateLimiter: make(chan struct{}, 1),
	}

	// Prime one token so the first call never waits.
	c.rateLimiter <- struct{}{}
	go c.rateLimitWorker()

	return c
}

// rateLimitWorker refills the token channel at the free-tier rate
// (5 calls/min = 1 call per 12 seconds).
func (c *Client) rateLimitWorker() {
	ticker := time.NewTicker(12 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		select {
		case c.rateLimiter <- struct{}{}:
		default:
		}
	}
}

func (c *Client) Name() string { return "AlphaVantage" }

// Quote fetches a GLOBAL_QUOTE for an equity symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return provider.Result{}, ctx.Err()
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return provider.Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Result{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload globalQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	price := normalize.ParseRound2(payload.GlobalQuote.Price)
	if price <= 0 {
		return provider.Result{}, provider.ErrNoPrice
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  price,
	}).Debug("Fetched quote")

	return provider.Result{
		Price:     price,
		ChangePct: normalize.ParseRound2(payload.GlobalQuote.ChangePercent),
		Currency:  "INR",
		Volume:    normalize.ParseRound2(payload.GlobalQuote.Volume),
		Name:      payload.GlobalQuote.Symbol,
	}, nil
}
