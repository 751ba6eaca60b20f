package swap

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Trade is a quote produced by the aggregator. It is a value object: once
// produced it is never mutated, a refresh replaces it wholesale. Holders that
// must survive later refreshes keep a Clone.
type Trade struct {
	TokenIn  common.Address
	TokenOut common.Address

	// Amounts in the tokens' smallest units.
	InputAmount  *big.Int
	OutputAmount *big.Int

	// Display-only USD estimates. Zero means the aggregator did not price it.
	AmountInUSD  float64
	AmountOutUSD float64
	GasUSD       float64

	RouterAddress   common.Address
	EncodedSwapData []byte
}

// Clone returns a deep copy of t.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	c := *t
	c.InputAmount = cloneInt(t.InputAmount)
	c.OutputAmount = cloneInt(t.OutputAmount)
	c.EncodedSwapData = bytes.Clone(t.EncodedSwapData)
	return &c
}

// Equal reports whether two trades carry the same quote.
func (t *Trade) Equal(o *Trade) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.TokenIn == o.TokenIn &&
		t.TokenOut == o.TokenOut &&
		intEqual(t.InputAmount, o.InputAmount) &&
		intEqual(t.OutputAmount, o.OutputAmount) &&
		t.AmountInUSD == o.AmountInUSD &&
		t.AmountOutUSD == o.AmountOutUSD &&
		t.GasUSD == o.GasUSD &&
		t.RouterAddress == o.RouterAddress &&
		bytes.Equal(t.EncodedSwapData, o.EncodedSwapData)
}

// SwapRequest builds the transaction executing t on behalf of from. The native
// input amount travels as value; ERC-20 inputs are pulled through the allowance.
func (t *Trade) SwapRequest(from common.Address) TxRequest {
	value := new(big.Int)
	if IsNative(t.TokenIn) && t.InputAmount != nil {
		value.Set(t.InputAmount)
	}
	return TxRequest{
		From:  from,
		To:    t.RouterAddress,
		Data:  bytes.Clone(t.EncodedSwapData),
		Value: value,
	}
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func intEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
