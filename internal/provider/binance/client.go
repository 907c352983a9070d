package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

// Client fetches crypto quotes and klines from the Binance public
// REST API. No API key is needed for the spot ticker endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Entry

	// Simple spacing between calls; the public API allows bursts but
	// the free weight budget is shared across symbols.
	rateLimit time.Duration
	mu        sync.Mutex
	lastCall  time.Time
}

// ticker24h is the /api/v3/ticker/24hr response shape.
type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// New creates a new Binance public REST client
func New(cfg *config.BinanceConfig, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.APIURL,
		logger:     log.WithField("component", "binance-rest"),
		rateLimit:  100 * time.Millisecond,
	}
}

func (c *Client) Name() string { return "Binance" }

// Quote fetches the 24h ticker for a crypto base symbol (BTC -> the
// BTCUSDT spot pair).
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	if err := c.enforceRateLimit(ctx); err != nil {
		return provider.Result{}, err
	}

	pair := symbol + "USDT"
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", c.baseURL, url.QueryEscape(pair))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return provider.Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return provider.Result{}, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var payload ticker24h
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	price := normalize.ParseRound2(payload.LastPrice)
	if price <= 0 {
		return provider.Result{}, provider.ErrNoPrice
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": pair,
		"price":  price,
	}).Debug("Fetched ticker")

	return provider.Result{
		Price:     price,
		ChangePct: normalize.ParseRound2(payload.PriceChangePercent),
		Currency:  "USD",
		Volume:    normalize.ParseRound2(payload.Volume),
		Name:      payload.Symbol,
	}, nil
}

// History fetches daily klines for the trailing window.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	if err := c.enforceRateLimit(ctx); err != nil {
		return nil, err
	}

	if days <= 0 {
		days = 30
	}
	limit := days
	if limit > 1000 {
		limit = 1000
	}

	params := url.Values{}
	params.Set("symbol", symbol+"USDT")
	params.Set("interval", "1d")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	// Klines arrive as positional arrays of mixed types.
	var rawKlines [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rawKlines); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	bars := make([]models.Bar, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			continue
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			continue
		}

		bars = append(bars, models.Bar{
			Time:   time.Unix(int64(openTime)/1000, 0).UTC().Format("2006-01-02"),
			Open:   parseField(raw[1]),
			High:   parseField(raw[2]),
			Low:    parseField(raw[3]),
			Close:  parseField(raw[4]),
			Volume: parseField(raw[5]),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched klines")

	return bars, nil
}

func parseField(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	return normalize.ParseRound2(s)
}

// enforceRateLimit reserves a send slot and waits outside the lock so
// concurrent callers queue on the clock, not on the mutex. The wait is
// abandoned when ctx expires.
func (c *Client) enforceRateLimit(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.rateLimit - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
