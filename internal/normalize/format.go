package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR formats a value with Indian digit grouping (lakhs and
// crores): 112450 -> ₹1,12,450.00.
func FormatINR(v float64) string {
	cleaned := Round2(v)

	sign := ""
	if cleaned < 0 {
		sign = "-"
		cleaned = -cleaned
	}

	intPart := int64(cleaned)
	decPart := int(math.Round((cleaned - float64(intPart)) * 100))
	if decPart == 100 { // carried over by rounding
		intPart++
		decPart = 0
	}

	s := strconv.FormatInt(intPart, 10)
	if len(s) > 3 {
		// Last group of three, then groups of two.
		lastThree := s[len(s)-3:]
		remaining := s[:len(s)-3]
		var groups []string
		for len(remaining) > 2 {
			groups = append([]string{remaining[len(remaining)-2:]}, groups...)
			remaining = remaining[:len(remaining)-2]
		}
		if remaining != "" {
			groups = append([]string{remaining}, groups...)
		}
		s = strings.Join(groups, ",") + "," + lastThree
	}

	return fmt.Sprintf("%s₹%s.%02d", sign, s, decPart)
}

// FormatUSD formats a value as USD with thousands separators:
// 98765.43 -> $98,765.43.
func FormatUSD(v float64) string {
	cleaned := Round2(v)

	sign := ""
	if cleaned < 0 {
		sign = "-"
		cleaned = -cleaned
	}

	intPart := int64(cleaned)
	decPart := int(math.Round((cleaned - float64(intPart)) * 100))
	if decPart == 100 {
		intPart++
		decPart = 0
	}

	s := strconv.FormatInt(intPart, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}

	return fmt.Sprintf("%s$%s.%02d", sign, s, decPart)
}

// FormatPercent formats a signed percentage: 2.5 -> +2.50%.
func FormatPercent(v float64) string {
	cleaned := Round2(v)
	if cleaned > 0 {
		return fmt.Sprintf("+%.2f%%", cleaned)
	}
	return fmt.Sprintf("%.2f%%", cleaned)
}
