package swap

//go:generate mockgen -source=types.go -destination=mock/swap.go -package=mock

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NativeTokenAddress is the pseudo address aggregators use for the chain's gas token.
var NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsNative reports whether addr denotes the native gas token.
func IsNative(addr common.Address) bool {
	return addr == NativeTokenAddress
}

// Account is the active wallet context: who signs and on which chain.
type Account struct {
	Address common.Address
	ChainID uint64
}

// Token is the registry metadata of a token.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
	Decimals uint8          `json:"decimals"`
	LogoURI  string         `json:"logoURI,omitempty"`
}

// TxRequest is an unsigned transaction the provider signs and broadcasts.
// A zero Gas lets the provider estimate it.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// QuoteParams is what the aggregator is asked to route.
type QuoteParams struct {
	TokenIn         common.Address
	TokenOut        common.Address
	AmountIn        *big.Int
	SlippageBps     uint32
	Deadline        time.Time
	Recipient       common.Address
	ExcludedSources []string
}

// ReceiptReader fetches transaction receipts.
type ReceiptReader interface {
	// TransactionReceipt returns (nil, nil) while the transaction is not mined yet.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Provider is the chain RPC provider consumed by the core.
type Provider interface {
	ReceiptReader

	// EstimateGas returns the estimated gas units for req.
	EstimateGas(ctx context.Context, req TxRequest) (uint64, error)
	// SendTransaction signs and broadcasts req and returns its hash.
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// TokenContract is the ERC-20 surface used by the allowance state machine.
type TokenContract interface {
	// Allowance returns how much spender may move on behalf of owner.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	// Approve broadcasts approve(spender, amount) and returns the transaction hash.
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
}

// Aggregator finds a route for a swap and encodes its call data.
type Aggregator interface {
	Quote(ctx context.Context, params QuoteParams) (*Trade, error)
}

// TokenRegistry resolves token metadata.
type TokenRegistry interface {
	Resolve(ctx context.Context, address common.Address) (Token, error)
}
