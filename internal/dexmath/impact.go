package dexmath

import (
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// UnknownImpact is the observable price impact value when it cannot be computed.
const UnknownImpact = -1

// Price impact thresholds, in percent.
const (
	HighImpactPercent     = 5
	VeryHighImpactPercent = 15
)

// ImpactSeverity classifies a price impact for warnings.
type ImpactSeverity string

// Impact severities.
const (
	ImpactUnknown  ImpactSeverity = "unknown"
	ImpactNormal   ImpactSeverity = "normal"
	ImpactHigh     ImpactSeverity = "high"
	ImpactVeryHigh ImpactSeverity = "very_high"
)

// PriceImpact is the estimated percentage of value lost to the trade moving the
// market. USD figures are display-only estimates, so float64 is used here.
type PriceImpact struct {
	Percent float64
	Known   bool
}

// NewPriceImpact computes (amountInUsd - amountOutUsd) * 100 / amountInUsd.
// A zero amountOutUsd means the aggregator did not price the output and the
// impact is unknown; a zero amountInUsd leaves nothing to divide by.
func NewPriceImpact(amountInUsd, amountOutUsd float64) PriceImpact {
	if amountOutUsd == 0 || amountInUsd == 0 {
		return PriceImpact{}
	}
	return PriceImpact{
		Percent: (amountInUsd - amountOutUsd) * 100 / amountInUsd,
		Known:   true,
	}
}

// Value returns the impact in percent, or -1 when unknown.
func (p PriceImpact) Value() float64 {
	if !p.Known {
		return UnknownImpact
	}
	return p.Percent
}

// Severity classifies the impact.
func (p PriceImpact) Severity() ImpactSeverity {
	switch {
	case !p.Known:
		return ImpactUnknown
	case p.Percent > VeryHighImpactPercent:
		return ImpactVeryHigh
	case p.Percent > HighImpactPercent:
		return ImpactHigh
	default:
		return ImpactNormal
	}
}

// String renders "--" for an unknown impact, "< 0.01%" for negligible ones and
// three decimals otherwise.
func (p PriceImpact) String() string {
	switch {
	case !p.Known:
		return "--"
	case p.Percent > 0.01:
		return strconv.FormatFloat(p.Percent, 'f', 3, 64) + "%"
	default:
		return "< 0.01%"
	}
}

// Rate returns how many output display units one input display unit buys.
// ok is false when either side is missing or zero.
func Rate(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8) (decimal.Decimal, bool) {
	if amountIn == nil || amountOut == nil || amountIn.Sign() <= 0 || amountOut.Sign() <= 0 {
		return decimal.Zero, false
	}
	in := FormatUnits(amountIn, decimalsIn)
	out := FormatUnits(amountOut, decimalsOut)
	return out.DivRound(in, 18), true
}

// InverseRate returns 1 / rate; ok is false for a zero rate.
func InverseRate(rate decimal.Decimal) (decimal.Decimal, bool) {
	if rate.IsZero() {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(1).DivRound(rate, 18), true
}

// FormatUSD renders a display USD estimate at 4 significant digits, "--" when absent.
func FormatUSD(v float64) string {
	if v == 0 {
		return "--"
	}
	return "$" + Significant(decimal.NewFromFloat(v), 4)
}
