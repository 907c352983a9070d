package normalize

import (
	"strings"

	"github.com/quote-feed/pkg/models"
)

// Known crypto base tickers.
var cryptoBases = map[string]bool{
	"BTC": true, "ETH": true, "XRP": true, "SOL": true, "ADA": true,
	"DOT": true, "DOGE": true, "MATIC": true, "LINK": true, "AVAX": true,
	"BNB": true, "SHIB": true, "LTC": true, "UNI": true, "ATOM": true,
}

// Commodity future codes and their watchlist aliases.
var commodityFutures = map[string]bool{
	"GC=F": true, "SI=F": true, "CL=F": true,
	"NG=F": true, "HG=F": true, "PL=F": true,
}

var commodityAliases = map[string]bool{
	"GOLD": true, "SILVER": true, "CRUDE": true,
	"NATGAS": true, "COPPER": true, "PLATINUM": true,
}

// Static allowlist of NSE equities used as a classification fallback
// for bare tickers without an exchange suffix.
var nseEquities = map[string]bool{
	"RELIANCE": true, "TCS": true, "INFY": true, "HDFCBANK": true,
	"ICICIBANK": true, "SBIN": true, "HDFC": true, "BAJFINANCE": true,
	"BHARTIARTL": true, "ITC": true, "KOTAKBANK": true, "LT": true,
	"AXISBANK": true, "ASIAN": true, "MARUTI": true, "TITAN": true,
	"NESTLEIND": true, "ULTRACEMCO": true, "WIPRO": true, "TATASTEEL": true,
	"NTPC": true, "POWERGRID": true, "SUNPHARMA": true, "TATAMOTORS": true,
	"ADANIENT": true,
}

// Classify determines the asset class of a symbol by lexical rules
// alone. It is pure and safe to call from any goroutine. Ambiguous or
// unrecognized symbols classify as EQUITY rather than failing; only a
// blank symbol yields UNKNOWN.
func Classify(symbol string) models.AssetClass {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return models.AssetClassUnknown
	}

	// Commodity future codes and spot aliases.
	if commodityFutures[s] || commodityAliases[s] {
		return models.AssetClassCommodity
	}

	// Equity exchange-suffix conventions and the NSE allowlist win
	// before any crypto heuristics so tickers like ADANIENT are never
	// mistaken for an ADA pair.
	if strings.HasSuffix(s, ".NS") || strings.HasSuffix(s, ".BO") {
		return models.AssetClassEquity
	}
	if nseEquities[s] {
		return models.AssetClassEquity
	}

	// Crypto: a known base ticker, bare or with a quote-currency
	// suffix (BTC, BTC-USD, BTC/USD, BTCUSDT).
	if cryptoBases[CryptoBase(s)] {
		return models.AssetClassCrypto
	}
	if strings.Contains(s, "-USD") || strings.Contains(s, "/USD") || strings.Contains(s, "USDT") {
		return models.AssetClassCrypto
	}

	// Default for everything else: treat as an equity ticker.
	return models.AssetClassEquity
}

// CryptoBase normalizes a crypto symbol to its base ticker
// (BTC-USD, BTC/USDT, BTCUSDT -> BTC).
func CryptoBase(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range []string{"-USDT", "/USDT", "USDT", "-USD", "/USD"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimSpace(s)
}

// EquityBase normalizes an equity symbol to its bare ticker
// (RELIANCE.NS -> RELIANCE).
func EquityBase(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, ".NS")
	s = strings.TrimSuffix(s, ".BO")
	return strings.TrimSpace(s)
}
