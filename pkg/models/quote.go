package models

import (
	"time"
)

// Quote source labels for non-provider provenance.
const (
	SourceCached = "CACHED"
	SourceMock   = "MOCK"
)

// Quote is the canonical normalized price observation produced by the
// engine. Price and ChangePct are always rounded to 2 decimal places,
// Price is never negative, and IsMock is true only when no live provider
// and no cache entry produced the value. A Quote is immutable once
// constructed; use Clone before handing it to another owner.
type Quote struct {
	Asset     string     `json:"asset"`
	Price     float64    `json:"price"`
	ChangePct float64    `json:"change_pc"`
	Class     AssetClass `json:"type"`
	Currency  string     `json:"currency"`
	Sentiment float64    `json:"sentiment"`
	IsMock    bool       `json:"is_mock"`
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`

	// Localized carries an optional presentation-layer conversion
	// (e.g. COMEX gold in INR per 10g). It augments the USD quote,
	// it never replaces it.
	Localized *LocalizedPrice `json:"localized,omitempty"`
}

// LocalizedPrice is a unit/currency-converted view of a quote.
type LocalizedPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit"`
	Display  string  `json:"display"`
}

// Clone returns a defensive copy of the quote.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	out := *q
	if q.Localized != nil {
		loc := *q.Localized
		out.Localized = &loc
	}
	return &out
}

// Bar represents OHLCV candlestick data. Approximate marks bars whose
// open/high/low were derived from a single sampled price point with a
// fixed band rather than true candle data.
type Bar struct {
	Time        string  `json:"time"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	Approximate bool    `json:"approximate,omitempty"`
}
