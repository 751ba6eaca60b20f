package dexmath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  assert.ErrorAssertionFunc
	}{
		{name: "integer", amount: "12", decimals: 6, want: "12000000", wantErr: assert.NoError},
		{name: "fraction", amount: "12.34", decimals: 18, want: "12340000000000000000", wantErr: assert.NoError},
		{name: "leading dot", amount: ".5", decimals: 2, want: "50", wantErr: assert.NoError},
		{name: "trailing dot", amount: "7.", decimals: 0, want: "7", wantErr: assert.NoError},
		{name: "truncates extra precision", amount: "1.23456789", decimals: 6, want: "1234567", wantErr: assert.NoError},
		{name: "empty", amount: "", decimals: 18, wantErr: assert.Error},
		{name: "lone dot", amount: ".", decimals: 18, wantErr: assert.Error},
		{name: "garbage", amount: "abc", decimals: 18, wantErr: assert.Error},
		{name: "negative", amount: "-1", decimals: 18, wantErr: assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseUnits(tt.amount, tt.decimals)
			tt.wantErr(t, err)
			if err == nil {
				require.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	t.Parallel()

	v, _ := new(big.Int).SetString("99500000000000000000", 10)
	require.Equal(t, "99.5", FormatUnits(v, 18).String())
	require.Equal(t, "0", FormatUnits(nil, 18).String())
}

func TestSignificant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		digits int32
		want   string
	}{
		{in: "99.5", digits: 8, want: "99.5"},
		{in: "0.000123456789", digits: 8, want: "0.00012345679"},
		{in: "123456789", digits: 8, want: "123456790"},
		{in: "1.99999999999", digits: 6, want: "2"},
		{in: "0", digits: 8, want: "0"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Significant(decimal.RequireFromString(tt.in), tt.digits), tt.in)
	}
}

func TestMinimumReceivedDisplay(t *testing.T) {
	t.Parallel()

	// outputAmount = 100 tokens, slippage 0.5%.
	out, err := ParseUnits("100", 18)
	require.NoError(t, err)

	min := FormatUnits(MinAmountOut(out, 50), 18)
	require.Equal(t, "99.5", Significant(min, 8))
}
