package normalize

import (
	"strings"
	"time"

	"github.com/quote-feed/pkg/models"
)

// NeutralSentiment is the placeholder value carried by every quote
// until a downstream scorer fills it in.
const NeutralSentiment = 0.50

// mockPrices holds deterministic synthetic prices for common assets so
// a recognized symbol never surfaces a hard error even when every
// provider and the cache have failed.
var mockPrices = map[string]struct {
	price     float64
	changePct float64
}{
	"BTC-USD":     {98500.00, 2.15},
	"ETH-USD":     {3420.50, 1.82},
	"RELIANCE.NS": {2985.75, 0.45},
	"HDFCBANK.NS": {1580.20, -0.32},
	"TCS.NS":      {4125.00, 0.88},
	"INFY.NS":     {1890.50, 0.15},
	"GC=F":        {2045.30, 0.28},
	"SI=F":        {24.55, 0.62},
}

// MockQuote returns a deterministic synthetic quote for a symbol. The
// result always has IsMock set and a strictly positive price.
func MockQuote(symbol string) *models.Quote {
	asset := strings.ToUpper(strings.TrimSpace(symbol))

	price, changePct := 100.00, 0.00
	if m, ok := mockPrices[asset]; ok {
		price, changePct = m.price, m.changePct
	}

	class := Classify(asset)
	currency := "USD"
	if class == models.AssetClassEquity {
		currency = "INR"
	}

	return &models.Quote{
		Asset:     asset,
		Price:     Round2(price),
		ChangePct: Round2(changePct),
		Class:     class,
		Currency:  currency,
		Sentiment: NeutralSentiment,
		IsMock:    true,
		Source:    models.SourceMock,
		Timestamp: time.Now().UTC(),
	}
}
