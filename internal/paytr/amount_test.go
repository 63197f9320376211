package paytr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

func TestAmountToMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100.00", 10000},
		{"100", 10000},
		{"0.01", 1},
		{"249.90", 24990},
		// Pins the rounding policy: half rounds up, not to even and not down.
		{"19.995", 2000},
		{"19.994", 1999},
		{"19.996", 2000},
	}
	for _, tc := range cases {
		amount, err := paytr.ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, paytr.AmountToMinor(amount), tc.in)
	}
}

func TestParseAmountRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-10.00"} {
		_, err := paytr.ParseAmount(in)
		require.Error(t, err, in)
	}
}
