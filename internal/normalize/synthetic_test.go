package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quote-feed/pkg/models"
)

func TestMockQuoteKnownAssets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		symbol   string
		price    float64
		class    models.AssetClass
		currency string
	}{
		{"BTC-USD", 98500.00, models.AssetClassCrypto, "USD"},
		{"RELIANCE.NS", 2985.75, models.AssetClassEquity, "INR"},
		{"GC=F", 2045.30, models.AssetClassCommodity, "USD"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.symbol, func(t *testing.T) {
			t.Parallel()

			quote := MockQuote(tc.symbol)
			require.True(t, quote.IsMock)
			require.Equal(t, models.SourceMock, quote.Source)
			require.Equal(t, tc.price, quote.Price)
			require.Equal(t, tc.class, quote.Class)
			require.Equal(t, tc.currency, quote.Currency)
			require.Equal(t, NeutralSentiment, quote.Sentiment)
		})
	}
}

func TestMockQuoteUnknownAssetStillPositive(t *testing.T) {
	t.Parallel()

	quote := MockQuote("ZOMATO")
	require.True(t, quote.IsMock)
	require.Greater(t, quote.Price, 0.0)
	require.Equal(t, models.AssetClassEquity, quote.Class)
}

func TestMockQuoteDeterministic(t *testing.T) {
	t.Parallel()

	a := MockQuote("ETH-USD")
	b := MockQuote("ETH-USD")
	require.Equal(t, a.Price, b.Price)
	require.Equal(t, a.ChangePct, b.ChangePct)
}
