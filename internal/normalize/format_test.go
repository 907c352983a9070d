package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatINR(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input float64
		want  string
	}{
		{112450, "₹1,12,450.00"},
		{985.5, "₹985.50"},
		{1234567.89, "₹12,34,567.89"},
		{54940.72, "₹54,940.72"},
		{0, "₹0.00"},
		{-1500.25, "-₹1,500.25"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatINR(tc.input))
		})
	}
}

func TestFormatUSD(t *testing.T) {
	t.Parallel()

	require.Equal(t, "$98,765.43", FormatUSD(98765.43))
	require.Equal(t, "$0.00", FormatUSD(0))
	require.Equal(t, "$1,000,000.00", FormatUSD(1e6))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+2.50%", FormatPercent(2.5))
	require.Equal(t, "-0.32%", FormatPercent(-0.32))
	require.Equal(t, "0.00%", FormatPercent(0))
}
