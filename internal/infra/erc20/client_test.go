package erc20

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fleshka4/swap-widget/internal/infra/erc20/mock"
	"github.com/fleshka4/swap-widget/internal/swap"
)

var (
	token   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	spender = common.HexToAddress("0x6131B5fae19EA4f9D964eAc0408E4408b66337b5")
)

func testABI(t *testing.T) abi.ABI {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	require.NoError(t, err)
	return parsed
}

func mustPackOutput(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()

	out, err := testABI(t).Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func mustPackInput(t *testing.T, method string, args ...interface{}) []byte {
	t.Helper()

	data, err := testABI(t).Pack(method, args...)
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, caller EthCaller, sender Sender) *ethClientImpl {
	t.Helper()

	client, err := NewClient(caller, sender, owner, 0)
	require.NoError(t, err)
	return client.(*ethClientImpl)
}

func TestCallMethod(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCaller := mock.NewMockEthCaller(ctrl)
	client := newTestClient(t, mockCaller, mock.NewMockSender(ctrl))

	t.Run("pack error", func(t *testing.T) {
		_, err := client.call(context.Background(), token, "nonexistent")
		require.Error(t, err)
	})

	t.Run("call contract error", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil, errors.New("call error"))

		_, err := client.call(context.Background(), token, "symbol")
		require.Error(t, err)
	})

	t.Run("unpack error", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return([]byte("invalid data"), nil)

		_, err := client.call(context.Background(), token, "decimals")
		require.Error(t, err)
	})
}

func TestAllowance(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCaller := mock.NewMockEthCaller(ctrl)
	client := newTestClient(t, mockCaller, mock.NewMockSender(ctrl))

	t.Run("success", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
				require.Equal(t, token, *msg.To)
				require.Equal(t, mustPackInput(t, "allowance", owner, spender), msg.Data)
				return mustPackOutput(t, "allowance", big.NewInt(500)), nil
			})

		got, err := client.Allowance(context.Background(), token, owner, spender)
		require.NoError(t, err)
		require.Equal(t, big.NewInt(500), got)
	})

	t.Run("max allowance", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(mustPackOutput(t, "allowance", swap.MaxAllowance()), nil)

		got, err := client.Allowance(context.Background(), token, owner, spender)
		require.NoError(t, err)
		require.Zero(t, got.Cmp(swap.MaxAllowance()))
	})

	t.Run("call error", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil, errors.New("call error"))

		_, err := client.Allowance(context.Background(), token, owner, spender)
		require.Error(t, err)
	})
}

func TestApprove(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSender := mock.NewMockSender(ctrl)
	client := newTestClient(t, mock.NewMockEthCaller(ctrl), mockSender)
	hash := common.HexToHash("0x01")

	t.Run("success", func(t *testing.T) {
		wantData := mustPackInput(t, "approve", spender, swap.MaxAllowance())

		mockSender.EXPECT().
			EstimateGas(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req swap.TxRequest) (uint64, error) {
				require.Equal(t, owner, req.From)
				require.Equal(t, token, req.To)
				require.Equal(t, wantData, req.Data)
				require.Zero(t, req.Value.Sign())
				return 46_000, nil
			})
		mockSender.EXPECT().
			SendTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req swap.TxRequest) (common.Hash, error) {
				require.EqualValues(t, 66_000, req.Gas)
				return hash, nil
			})

		got, err := client.Approve(context.Background(), token, spender, swap.MaxAllowance())
		require.NoError(t, err)
		require.Equal(t, hash, got)
	})

	t.Run("estimate error", func(t *testing.T) {
		mockSender.EXPECT().
			EstimateGas(gomock.Any(), gomock.Any()).
			Return(uint64(0), errors.New("execution reverted"))

		_, err := client.Approve(context.Background(), token, spender, big.NewInt(1))
		require.Error(t, err)
	})

	t.Run("send error", func(t *testing.T) {
		mockSender.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(46_000), nil)
		mockSender.EXPECT().
			SendTransaction(gomock.Any(), gomock.Any()).
			Return(common.Hash{}, errors.New("user rejected"))

		_, err := client.Approve(context.Background(), token, spender, big.NewInt(1))
		require.Error(t, err)
	})
}

// byMethod answers CallContract according to the called selector.
func byMethod(t *testing.T, answers map[string][]byte) func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	parsed := testABI(t)
	return func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
		for name, m := range parsed.Methods {
			if bytes.Equal(msg.Data[:4], m.ID) {
				if out, ok := answers[name]; ok {
					return out, nil
				}
				return nil, errors.Errorf("%s reverted", name)
			}
		}
		return nil, errors.New("unknown selector")
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCaller := mock.NewMockEthCaller(ctrl)
	client := newTestClient(t, mockCaller, mock.NewMockSender(ctrl))

	t.Run("success", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(byMethod(t, map[string][]byte{
				"symbol":   mustPackOutput(t, "symbol", "USDC"),
				"name":     mustPackOutput(t, "name", "USD Coin"),
				"decimals": mustPackOutput(t, "decimals", uint8(6)),
			})).
			Times(3)

		got, err := client.Metadata(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, swap.Token{Address: token, Symbol: "USDC", Name: "USD Coin", Decimals: 6}, got)
	})

	t.Run("name is optional", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(byMethod(t, map[string][]byte{
				"symbol":   mustPackOutput(t, "symbol", "MKR"),
				"decimals": mustPackOutput(t, "decimals", uint8(18)),
			})).
			Times(3)

		got, err := client.Metadata(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, "MKR", got.Symbol)
		require.Empty(t, got.Name)
		require.EqualValues(t, 18, got.Decimals)
	})

	t.Run("decimals error", func(t *testing.T) {
		mockCaller.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(byMethod(t, map[string][]byte{
				"symbol": mustPackOutput(t, "symbol", "BAD"),
				"name":   mustPackOutput(t, "name", "Broken"),
			})).
			Times(3)

		_, err := client.Metadata(context.Background(), token)
		require.Error(t, err)
	})
}
