package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAmountInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "", want: "", ok: true},
		{in: "12.34", want: "12.34", ok: true},
		{in: "12,34", want: "12.34", ok: true},
		{in: ".5", want: ".5", ok: true},
		{in: "5.", want: "5.", ok: true},
		{in: "12.34.56", ok: false},
		{in: "abc", ok: false},
		{in: "-1", ok: false},
		{in: "1e5", ok: false},
		{in: " 1", ok: false},
	}

	for _, tt := range tests {
		got, ok := NormalizeAmountInput(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			require.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestIsZeroAmount(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", ".", "0", "0.", "0.000", ".00"} {
		require.True(t, isZeroAmount(s), s)
	}
	for _, s := range []string{"1", "0.01", "10", ".5"} {
		require.False(t, isZeroAmount(s), s)
	}
}
