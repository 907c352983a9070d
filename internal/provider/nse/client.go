package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/pkg/config"
)

// Client fetches equity quotes directly from the NSE India API. NSE
// rejects requests without a browser-like session, so the first quote
// call bootstraps cookies by hitting the homepage once.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	bootstrapURL string
	logger       *logrus.Entry

	bootstrapMu  sync.Mutex
	bootstrapped bool
}

// quoteEquity is the quote-equity response envelope.
type quoteEquity struct {
	Info struct {
		CompanyName string `json:"companyName"`
	} `json:"info"`
	PriceInfo struct {
		LastPrice         float64 `json:"lastPrice"`
		PChange           float64 `json:"pChange"`
		TotalTradedVolume float64 `json:"totalTradedVolume"`
	} `json:"priceInfo"`
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://www.nseindia.com/",
	"Connection":      "keep-alive",
}

// New creates a new NSE direct-API client
func New(cfg *config.NSEConfig, log *logrus.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		baseURL:      cfg.BaseURL,
		bootstrapURL: cfg.BootstrapURL,
		logger:       log.WithField("component", "nse-direct"),
	}
}

func (c *Client) Name() string { return "NSE_DIRECT" }

// bootstrap establishes the cookie session required by the quote API.
// A failed attempt is retried on the next call rather than poisoning
// the client for the life of the process.
func (c *Client) bootstrap(ctx context.Context) error {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()

	if c.bootstrapped {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bootstrapURL, nil)
	if err != nil {
		return err
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cookie bootstrap failed: %w", err)
	}
	resp.Body.Close()

	c.bootstrapped = true
	c.logger.Debug("Cookie session established")
	return nil
}

// Quote fetches a quote for a bare NSE symbol (no .NS suffix).
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	if err := c.bootstrap(ctx); err != nil {
		return provider.Result{}, err
	}

	endpoint := fmt.Sprintf("%s/quote-equity?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return provider.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Result{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload quoteEquity
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	price := normalize.Round2(payload.PriceInfo.LastPrice)
	if price <= 0 {
		return provider.Result{}, provider.ErrNoPrice
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  price,
	}).Debug("Fetched quote")

	return provider.Result{
		Price:     price,
		ChangePct: normalize.Round2(payload.PriceInfo.PChange),
		Currency:  "INR",
		Volume:    payload.PriceInfo.TotalTradedVolume,
		Name:      payload.Info.CompanyName,
	}, nil
}

func setHeaders(req *http.Request) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}
