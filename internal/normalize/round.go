package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundTo rounds a value to the given number of decimal places using
// decimal arithmetic with half-up rounding (ties away from zero), the
// same behavior as the upstream data contract. Non-finite input maps
// to 0. Binary float rounding is deliberately avoided so 100.004999...
// artifacts never leak into quotes.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds a value to the canonical 2 decimal places.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// ParseRound2 parses a numeric string and rounds it to 2 decimal
// places. Empty or unparsable input maps to 0.00; it never fails.
func ParseRound2(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Round(2).Float64()
	return f
}
