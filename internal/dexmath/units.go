package dexmath

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseUnits converts a human decimal amount ("12.34") into the token's smallest
// unit. Digits beyond the token's precision are truncated.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return nil, errors.New("empty amount")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decimal.NewFromString")
	}
	if d.IsNegative() {
		return nil, errors.Errorf("negative amount %q", amount)
	}

	return d.Shift(int32(decimals)).BigInt(), nil
}

// FormatUnits converts an amount in the smallest unit into display units.
func FormatUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// RoundSignificant rounds d to the given number of significant digits.
func RoundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	coef := new(big.Int).Abs(d.Coefficient())
	// magnitude is the count of digits left of the decimal point, <= 0 for |d| < 1.
	magnitude := int32(len(coef.String())) + d.Exponent()
	return d.Round(digits - magnitude)
}

// Significant renders d with at most the given number of significant digits and
// no trailing zeros.
func Significant(d decimal.Decimal, digits int32) string {
	return RoundSignificant(d, digits).String()
}
