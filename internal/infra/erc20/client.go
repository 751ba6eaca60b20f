package erc20

//go:generate mockgen -source=client.go -destination=mock/client.go -package=mock

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fleshka4/swap-widget/internal/dexmath"
	"github.com/fleshka4/swap-widget/internal/swap"
)

const erc20ABIJSON = `[
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// Client reads and authorises ERC-20 tokens on behalf of one owner.
type Client interface {
	// Allowance returns how much spender may move on behalf of owner.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	// Approve broadcasts approve(spender, amount) from the owner.
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	// Metadata reads symbol, name and decimals of token.
	Metadata(ctx context.Context, token common.Address) (swap.Token, error)
}

// EthCaller represents interface for calling contracts.
type EthCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Sender estimates and broadcasts transactions.
type Sender interface {
	EstimateGas(ctx context.Context, req swap.TxRequest) (uint64, error)
	SendTransaction(ctx context.Context, req swap.TxRequest) (common.Hash, error)
}

type ethClientImpl struct {
	caller   EthCaller
	sender   Sender
	owner    common.Address
	erc20ABI abi.ABI

	callTimeout time.Duration
}

// NewClient creates an ERC-20 client. Approvals are sent from owner through sender.
func NewClient(caller EthCaller, sender Sender, owner common.Address, callTimeout time.Duration) (Client, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "abi.JSON")
	}

	return &ethClientImpl{
		caller:   caller,
		sender:   sender,
		owner:    owner,
		erc20ABI: erc20ABI,

		callTimeout: callTimeout,
	}, nil
}

func (c *ethClientImpl) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrap(err, "c.erc20ABI.Pack")
	}

	res, err := c.caller.CallContract(
		ctx,
		ethereum.CallMsg{
			To:   &to,
			Data: data,
		},
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "c.caller.CallContract")
	}

	out, err := c.erc20ABI.Unpack(method, res)
	if err != nil {
		return nil, errors.Wrap(err, "c.erc20ABI.Unpack")
	}
	if len(out) == 0 {
		return nil, errors.Errorf("empty %s result", method)
	}

	return out, nil
}

func (c *ethClientImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

// Allowance returns how much spender may move on behalf of owner.
func (c *ethClientImpl) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrap(err, "c.call")
	}

	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("failed to cast allowance to *big.Int")
	}

	return allowance, nil
}

// Approve broadcasts approve(spender, amount) with a padded gas limit.
func (c *ethClientImpl) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := c.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "c.erc20ABI.Pack")
	}

	req := swap.TxRequest{
		From:  c.owner,
		To:    token,
		Data:  data,
		Value: new(big.Int),
	}

	estimated, err := c.sender.EstimateGas(ctx, req)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "c.sender.EstimateGas")
	}
	req.Gas = dexmath.MarginedGasLimitUint64(estimated)

	hash, err := c.sender.SendTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "c.sender.SendTransaction")
	}

	return hash, nil
}

// Metadata reads symbol, name and decimals of token in parallel.
func (c *ethClientImpl) Metadata(ctx context.Context, token common.Address) (swap.Token, error) {
	const (
		symbolMethod   = "symbol"
		nameMethod     = "name"
		decimalsMethod = "decimals"
	)
	methods := []string{symbolMethod, nameMethod, decimalsMethod}

	type fieldResult struct {
		value  interface{}
		err    error
		method string
	}

	var wg sync.WaitGroup
	ch := make(chan fieldResult, len(methods))

	getField := func(method string) {
		defer wg.Done()

		ctxCall, cancel := c.withTimeout(ctx)
		defer cancel()

		out, err := c.call(ctxCall, token, method)
		if err != nil {
			ch <- fieldResult{err: errors.Wrapf(err, "failed to call %s", method), method: method}
			return
		}

		ch <- fieldResult{value: out[0], method: method}
	}

	wg.Add(len(methods))
	for _, m := range methods {
		go getField(m)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var (
		meta        = swap.Token{Address: token}
		combinedErr error
	)

	for result := range ch {
		if result.err != nil {
			// name is optional in the standard.
			if result.method != nameMethod {
				combinedErr = multierr.Append(combinedErr, result.err)
			}
			continue
		}

		switch result.method {
		case symbolMethod:
			symbol, ok := result.value.(string)
			if !ok {
				combinedErr = multierr.Append(combinedErr, errors.New("failed to cast symbol to string"))
				continue
			}
			meta.Symbol = symbol
		case nameMethod:
			if name, ok := result.value.(string); ok {
				meta.Name = name
			}
		case decimalsMethod:
			decimals, ok := result.value.(uint8)
			if !ok {
				combinedErr = multierr.Append(combinedErr, errors.New("failed to cast decimals to uint8"))
				continue
			}
			meta.Decimals = decimals
		}
	}

	if combinedErr != nil {
		return swap.Token{}, errors.Wrap(combinedErr, "failed to get token metadata")
	}

	return meta, nil
}
