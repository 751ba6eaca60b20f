package dexmath

import (
	"math/big"
	"sync"
)

const (
	// BpsDenominator is 100% expressed in basis points.
	BpsDenominator = 10_000

	// GasMarginBps is the proportional gas buffer (20%).
	GasMarginBps = 2_000

	// MinGasMargin is the flat buffer applied when the proportional one is smaller.
	MinGasMargin = 20_000
)

var (
	bpsDen       = big.NewInt(BpsDenominator)
	gasMarginMul = big.NewInt(GasMarginBps)
	minGasMargin = big.NewInt(MinGasMargin)

	defaultMath = newMathService()
)

type mathTmp struct {
	a *big.Int
	b *big.Int
}

type mathService struct {
	pool *sync.Pool
}

func newMathService() *mathService {
	return &mathService{
		pool: &sync.Pool{
			New: func() any {
				return &mathTmp{
					a: new(big.Int),
					b: new(big.Int),
				}
			},
		},
	}
}

func (m *mathService) marginedGasLimitInto(out, estimated *big.Int) {
	t := m.pool.Get().(*mathTmp)

	// margin := estimated * 2000 / 10000.
	t.a.Mul(estimated, gasMarginMul)
	t.a.Quo(t.a, bpsDen)

	if t.a.Cmp(minGasMargin) >= 0 {
		out.Add(estimated, t.a)
	} else {
		out.Add(estimated, minGasMargin)
	}

	m.pool.Put(t)
}

func (m *mathService) minAmountOutInto(out, amountOut *big.Int, slippageBps uint32) {
	t := m.pool.Get().(*mathTmp)

	// out = amountOut * (10000 - bps) / 10000.
	t.a.SetUint64(uint64(BpsDenominator - slippageBps))
	t.b.Mul(amountOut, t.a)
	out.Quo(t.b, bpsDen)

	m.pool.Put(t)
}

// MarginedGasLimit pads an estimated gas amount with a safety buffer: 20% of the
// estimate, but never less than 20000 gas units. A tie goes to the proportional
// branch.
//
// estimated must be non-nil and non-negative; violating that is a programmer error.
func MarginedGasLimit(estimated *big.Int) *big.Int {
	if estimated == nil || estimated.Sign() < 0 {
		panic("dexmath: MarginedGasLimit called with nil or negative estimate")
	}
	out := new(big.Int)
	defaultMath.marginedGasLimitInto(out, estimated)
	return out
}

// MarginedGasLimitUint64 is MarginedGasLimit for the uint64 gas values used by
// transaction builders. The result saturates at the maximum uint64.
func MarginedGasLimitUint64(estimated uint64) uint64 {
	out := MarginedGasLimit(new(big.Int).SetUint64(estimated))
	if !out.IsUint64() {
		return ^uint64(0)
	}
	return out.Uint64()
}

// MinAmountOut returns the smallest output amount acceptable under the given
// slippage tolerance, rounded down to the token's smallest unit.
// Slippage above 100% is clamped to 100%.
func MinAmountOut(amountOut *big.Int, slippageBps uint32) *big.Int {
	out := new(big.Int)
	if amountOut == nil || amountOut.Sign() <= 0 {
		return out
	}
	if slippageBps > BpsDenominator {
		slippageBps = BpsDenominator
	}
	defaultMath.minAmountOutInto(out, amountOut, slippageBps)
	return out
}
