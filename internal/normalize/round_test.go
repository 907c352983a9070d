package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input float64
		want  float64
	}{
		{"truncates below midpoint", 100.004, 100.00},
		{"rounds up at midpoint", 100.005, 100.01},
		{"rounds up above midpoint", 100.006, 100.01},
		{"half up on quarter tick", 0.125, 0.13},
		{"negative rounds away from zero", -1.005, -1.01},
		{"no fraction unchanged", 42.0, 42.0},
		{"already two places", 98654.32, 98654.32},
		{"tiny value", 0.001, 0.0},
		{"zero", 0, 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tc.want, Round2(tc.input), 1e-9)
		})
	}
}

func TestRoundToNonFinite(t *testing.T) {
	t.Parallel()

	require.Zero(t, RoundTo(math.NaN(), 2))
	require.Zero(t, RoundTo(math.Inf(1), 2))
	require.Zero(t, RoundTo(math.Inf(-1), 2))
}

func TestParseRound2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain number", "2985.753", 2985.75},
		{"percent suffix", "2.156%", 2.16},
		{"leading whitespace", "  1.005", 1.01},
		{"negative percent", "-0.325%", -0.33},
		{"empty string", "", 0},
		{"garbage", "n/a", 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tc.want, ParseRound2(tc.input), 1e-9)
		})
	}
}
