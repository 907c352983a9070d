package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/sirupsen/logrus"

	"github.com/quote-feed/internal/normalize"
	"github.com/quote-feed/internal/provider"
	"github.com/quote-feed/internal/worker"
	"github.com/quote-feed/pkg/models"
)

// Client serves quotes and daily candles through the finance-go
// market-data library. The library is synchronous, so every call runs
// on the shared bounded worker pool; nothing here may execute on the
// scheduling path directly.
type Client struct {
	pool   *worker.Pool
	logger *logrus.Entry
}

// New creates a new Yahoo market-data client
func New(pool *worker.Pool, log *logrus.Logger) *Client {
	return &Client{
		pool:   pool,
		logger: log.WithField("component", "yahoo"),
	}
}

func (c *Client) Name() string { return "yahoo" }

// Quote fetches a point quote for any Yahoo-style symbol
// (RELIANCE.NS, GC=F, BTC-USD).
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Result, error) {
	var q *finance.Quote

	err := c.pool.Do(ctx, func() error {
		var err error
		q, err = quote.Get(symbol)
		return err
	})
	if err != nil {
		return provider.Result{}, fmt.Errorf("quote lookup failed: %w", err)
	}
	if q == nil {
		return provider.Result{}, provider.ErrNoPrice
	}

	price := normalize.Round2(q.RegularMarketPrice)
	if price <= 0 {
		// Fall back to the previous close the way the upstream
		// data source does outside market hours.
		price = normalize.Round2(q.RegularMarketPreviousClose)
	}
	if price <= 0 {
		return provider.Result{}, provider.ErrNoPrice
	}

	currency := q.CurrencyID
	if currency == "" {
		currency = "USD"
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  price,
	}).Debug("Fetched quote")

	return provider.Result{
		Price:     price,
		ChangePct: normalize.Round2(q.RegularMarketChangePercent),
		Currency:  currency,
		Volume:    float64(q.RegularMarketVolume),
		Name:      q.ShortName,
	}, nil
}

// History fetches true daily OHLCV candles for the trailing window.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	if days <= 0 {
		days = 180
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	var bars []models.Bar
	err := c.pool.Do(ctx, func() error {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		for iter.Next() {
			b := iter.Bar()
			open, _ := b.Open.Round(2).Float64()
			high, _ := b.High.Round(2).Float64()
			low, _ := b.Low.Round(2).Float64()
			closePx, _ := b.Close.Round(2).Float64()

			bars = append(bars, models.Bar{
				Time:   time.Unix(int64(b.Timestamp), 0).UTC().Format("2006-01-02"),
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePx,
				Volume: float64(b.Volume),
			})
		}
		return iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("chart lookup failed: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched history")

	return bars, nil
}
