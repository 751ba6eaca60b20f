package evm

//go:generate mockgen -source=provider.go -destination=mock/backend.go -package=mock

import (
	"context"
	"crypto/ecdsa"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/swap"
)

// Backend is the subset of ethclient.Client the provider needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Provider signs with a local key and talks to the node over JSON-RPC.
// Without a key it is read-only: estimates, calls and receipts still work.
type Provider struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	signer  types.Signer
	logger  logrus.FieldLogger

	callTimeout time.Duration
	close       func()
}

// NewProvider dials rpcURL. privateKey is a hex key, with or without 0x; an
// empty key gives a read-only provider.
func NewProvider(ctx context.Context, rpcURL, privateKey string, callTimeout time.Duration, logger logrus.FieldLogger) (*Provider, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "ethclient.DialContext")
	}

	p, err := newProviderWithBackend(ctx, client, privateKey, callTimeout, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	p.close = client.Close

	return p, nil
}

func newProviderWithBackend(ctx context.Context, backend Backend, privateKey string, callTimeout time.Duration, logger logrus.FieldLogger) (*Provider, error) {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "backend.ChainID")
	}

	p := &Provider{
		backend:     backend,
		chainID:     chainID,
		signer:      types.LatestSignerForChainID(chainID),
		logger:      logger,
		callTimeout: callTimeout,
	}

	if privateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
		if err != nil {
			return nil, errors.Wrap(err, "crypto.HexToECDSA")
		}
		p.key = key
		p.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return p, nil
}

// Account returns the signer's account on the connected chain. The address is
// zero for a read-only provider.
func (p *Provider) Account() swap.Account {
	return swap.Account{Address: p.from, ChainID: p.chainID.Uint64()}
}

// CanSign reports whether a key is loaded.
func (p *Provider) CanSign() bool {
	return p.key != nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

// EstimateGas returns the node's gas estimate for req.
func (p *Provider) EstimateGas(ctx context.Context, req swap.TxRequest) (uint64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	gas, err := p.backend.EstimateGas(ctx, callMsg(req))
	if err != nil {
		return 0, errors.Wrap(err, "p.backend.EstimateGas")
	}
	return gas, nil
}

// SendTransaction fills nonce and fees, signs req and broadcasts it. req.Gas
// must already carry the padded limit; zero falls back to a raw estimate.
func (p *Provider) SendTransaction(ctx context.Context, req swap.TxRequest) (common.Hash, error) {
	if p.key == nil {
		return common.Hash{}, errors.Wrap(apperrors.ErrInvalidState, "provider has no signer key")
	}
	if req.From != p.from {
		return common.Hash{}, errors.Wrapf(apperrors.ErrInvalidArgument, "cannot sign for %s", req.From.Hex())
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	nonce, err := p.backend.PendingNonceAt(ctx, p.from)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "p.backend.PendingNonceAt")
	}

	if req.Gas == 0 {
		req.Gas, err = p.backend.EstimateGas(ctx, callMsg(req))
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "p.backend.EstimateGas")
		}
	}

	txData, err := p.feeData(ctx, nonce, req)
	if err != nil {
		return common.Hash{}, err
	}

	signed, err := types.SignTx(types.NewTx(txData), p.signer, p.key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "types.SignTx")
	}

	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, errors.Wrap(err, "p.backend.SendTransaction")
	}

	p.logger.WithFields(logrus.Fields{
		"tx":    signed.Hash().Hex(),
		"nonce": nonce,
		"gas":   req.Gas,
	}).Debug("transaction broadcast")

	return signed.Hash(), nil
}

// feeData picks EIP-1559 fees when the latest block has a base fee and falls
// back to a legacy gas price otherwise.
func (p *Provider) feeData(ctx context.Context, nonce uint64, req swap.TxRequest) (types.TxData, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	head, err := p.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "p.backend.HeaderByNumber")
	}

	if head.BaseFee == nil {
		gasPrice, err := p.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "p.backend.SuggestGasPrice")
		}
		return &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      req.Gas,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		}, nil
	}

	tip, err := p.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "p.backend.SuggestGasTipCap")
	}
	// room for two full blocks of base fee growth.
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return &types.DynamicFeeTx{
		ChainID:   p.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       req.Gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	}, nil
}

// TransactionReceipt returns (nil, nil) while the transaction is not mined.
func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	receipt, err := p.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "p.backend.TransactionReceipt")
	}
	return receipt, nil
}

// CallContract executes a read-only call at the latest block.
func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	out, err := p.backend.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, errors.Wrap(err, "p.backend.CallContract")
	}
	return out, nil
}

// Close releases the RPC connection.
func (p *Provider) Close() {
	if p.close != nil {
		p.close()
	}
}

func callMsg(req swap.TxRequest) ethereum.CallMsg {
	to := req.To
	return ethereum.CallMsg{
		From:  req.From,
		To:    &to,
		Value: req.Value,
		Data:  req.Data,
	}
}
