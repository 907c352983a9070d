package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quote-feed/pkg/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		symbol string
		want   models.AssetClass
	}{
		{"BTC", models.AssetClassCrypto},
		{"BTC-USD", models.AssetClassCrypto},
		{"btc/usd", models.AssetClassCrypto},
		{"ETHUSDT", models.AssetClassCrypto},
		{"SOL", models.AssetClassCrypto},
		{"RELIANCE.NS", models.AssetClassEquity},
		{"TCS.BO", models.AssetClassEquity},
		{"INFY", models.AssetClassEquity},
		{"reliance", models.AssetClassEquity},
		{"GOLD", models.AssetClassCommodity},
		{"GC=F", models.AssetClassCommodity},
		{"silver", models.AssetClassCommodity},
		{"NG=F", models.AssetClassCommodity},
		{"", models.AssetClassUnknown},
		{"   ", models.AssetClassUnknown},
		// Unrecognized tickers default to equity.
		{"ZOMATO", models.AssetClassEquity},
		// ADANIENT contains ADA but is an NSE listing, not a crypto pair.
		{"ADANIENT", models.AssetClassEquity},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.symbol, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.symbol))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		require.Equal(t, models.AssetClassCrypto, Classify("BTC-USD"))
	}
}

func TestCryptoBase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "BTC", CryptoBase("BTC-USD"))
	require.Equal(t, "BTC", CryptoBase("btc/usdt"))
	require.Equal(t, "ETH", CryptoBase("ETHUSDT"))
	require.Equal(t, "SOL", CryptoBase("SOL"))
}

func TestEquityBase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "RELIANCE", EquityBase("RELIANCE.NS"))
	require.Equal(t, "TCS", EquityBase("tcs.bo"))
	require.Equal(t, "INFY", EquityBase("INFY"))
}
