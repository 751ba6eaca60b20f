package swap_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/swap"
	"github.com/fleshka4/swap-widget/internal/swap/mock"
)

var approvalTx = common.HexToHash("0x01")

func allowanceParams(required int64) swap.AllowanceParams {
	return swap.AllowanceParams{
		Token:    usdc,
		Owner:    wallet,
		Spender:  router,
		Required: big.NewInt(required),
	}
}

func fastAllowance(contract swap.TokenContract, receipts swap.ReceiptReader, params swap.AllowanceParams) *swap.Allowance {
	return swap.NewAllowance(contract, receipts, params, swap.AllowanceConfig{PollInterval: time.Millisecond})
}

func TestAllowanceRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		allowance int64
		required  int64
		want      swap.ApprovalState
	}{
		{name: "exactly covered", allowance: 500, required: 500, want: swap.ApprovalApproved},
		{name: "one short", allowance: 500, required: 501, want: swap.ApprovalNotApproved},
		{name: "nothing approved", allowance: 0, required: 1, want: swap.ApprovalNotApproved},
		{name: "nothing required", allowance: 0, required: 0, want: swap.ApprovalApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			contract := mock.NewMockTokenContract(ctrl)
			contract.EXPECT().
				Allowance(gomock.Any(), usdc, wallet, router).
				Return(big.NewInt(tt.allowance), nil)

			params := allowanceParams(tt.required)
			a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), params)
			defer a.Close()

			require.Equal(t, swap.ApprovalUnknown, a.State())
			require.NoError(t, a.Refresh(context.Background(), params))
			require.Equal(t, tt.want, a.State())
		})
	}
}

func TestAllowanceRefreshIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(10), nil).Times(2)

	params := allowanceParams(100)
	a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	first := a.View()
	require.NoError(t, a.Refresh(context.Background(), params))
	require.Equal(t, first, a.View())
	require.Equal(t, swap.ApprovalNotApproved, first.State)
}

func TestAllowanceNativeToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// the contract must never be asked about the native token.
	contract := mock.NewMockTokenContract(ctrl)
	params := allowanceParams(1)
	params.Token = swap.NativeTokenAddress

	a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), params)
	defer a.Close()

	require.Equal(t, swap.ApprovalApproved, a.State())
	require.NoError(t, a.Refresh(context.Background(), params))
	require.Equal(t, swap.ApprovalApproved, a.State())
}

func TestAllowanceWithoutAccountStaysUnknown(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	params := allowanceParams(1)
	params.Owner = common.Address{}

	a := fastAllowance(mock.NewMockTokenContract(ctrl), mock.NewMockReceiptReader(ctrl), params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	require.Equal(t, swap.ApprovalUnknown, a.State())
}

func TestAllowanceDiscardsStaleResponse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oldSpender := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	started := make(chan struct{})
	release := make(chan struct{})

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().
		Allowance(gomock.Any(), usdc, wallet, oldSpender).
		DoAndReturn(func(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
			close(started)
			<-release
			return big.NewInt(0), nil
		})
	contract.EXPECT().
		Allowance(gomock.Any(), usdc, wallet, router).
		Return(big.NewInt(1_000), nil)

	stale := allowanceParams(500)
	stale.Spender = oldSpender
	a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), stale)
	defer a.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Refresh(context.Background(), stale) }()
	<-started

	require.NoError(t, a.Refresh(context.Background(), allowanceParams(500)))
	require.Equal(t, swap.ApprovalApproved, a.State())

	close(release)
	require.NoError(t, <-errCh)

	view := a.View()
	require.Equal(t, swap.ApprovalApproved, view.State)
	require.Equal(t, router, view.Params.Spender)
	require.False(t, view.Loading)
}

func TestAllowanceReadErrorKeepsState(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	gomock.InOrder(
		contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil),
		contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(nil, errors.New("rpc down")),
	)

	params := allowanceParams(10)
	a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	require.Error(t, a.Refresh(context.Background(), params))

	view := a.View()
	require.Equal(t, swap.ApprovalNotApproved, view.State)
	require.Error(t, view.Err)
}

func TestAllowanceApproveRequiresNotApproved(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := fastAllowance(mock.NewMockTokenContract(ctrl), mock.NewMockReceiptReader(ctrl), allowanceParams(1))
	defer a.Close()

	_, err := a.Approve(context.Background())
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	require.Equal(t, swap.ApprovalUnknown, a.State())
}

func TestAllowanceApproveFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil)
	contract.EXPECT().
		Approve(gomock.Any(), usdc, router, swap.MaxAllowance()).
		Return(common.Hash{}, errors.New("user rejected"))

	params := allowanceParams(10)
	a := fastAllowance(contract, mock.NewMockReceiptReader(ctrl), params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))

	_, err := a.Approve(context.Background())
	require.Error(t, err)

	view := a.View()
	require.Equal(t, swap.ApprovalNotApproved, view.State)
	require.Equal(t, common.Hash{}, view.PendingTx)
	require.Error(t, view.Err)
}

func TestAllowanceApproveWatchesReceipt(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil)
	contract.EXPECT().Approve(gomock.Any(), usdc, router, swap.MaxAllowance()).Return(approvalTx, nil)

	mined := make(chan struct{})
	receipts := mock.NewMockReceiptReader(ctrl)
	gomock.InOrder(
		receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).Return(nil, nil),
		receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).Return(nil, errors.New("timeout")),
		receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).
			DoAndReturn(func(context.Context, common.Hash) (*types.Receipt, error) {
				close(mined)
				return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
			}),
	)

	params := allowanceParams(10)
	a := fastAllowance(contract, receipts, params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))

	hash, err := a.Approve(context.Background())
	require.NoError(t, err)
	require.Equal(t, approvalTx, hash)

	_, err = a.Approve(context.Background())
	require.ErrorIs(t, err, apperrors.ErrInvalidState, "approve is not allowed while pending")

	<-mined
	require.Eventually(t, func() bool { return a.State() == swap.ApprovalApproved }, waitFor, tick)
	require.Equal(t, common.Hash{}, a.View().PendingTx)

	// the watcher is gone: any further receipt poll would fail the mock.
	time.Sleep(20 * time.Millisecond)
}

func TestAllowanceRevertedApproval(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil)
	contract.EXPECT().Approve(gomock.Any(), usdc, router, gomock.Any()).Return(approvalTx, nil)

	receipts := mock.NewMockReceiptReader(ctrl)
	receipts.EXPECT().
		TransactionReceipt(gomock.Any(), approvalTx).
		Return(&types.Receipt{Status: types.ReceiptStatusFailed}, nil)

	params := allowanceParams(10)
	a := fastAllowance(contract, receipts, params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	_, err := a.Approve(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return a.State() == swap.ApprovalNotApproved }, waitFor, tick)
	require.Error(t, a.View().Err)
}

func TestAllowanceRefreshWhilePending(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	gomock.InOrder(
		contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil),
		contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil),
		contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(swap.MaxAllowance(), nil),
	)
	contract.EXPECT().Approve(gomock.Any(), usdc, router, gomock.Any()).Return(approvalTx, nil)

	receipts := mock.NewMockReceiptReader(ctrl)
	receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).Return(nil, nil).AnyTimes()

	params := allowanceParams(10)
	a := fastAllowance(contract, receipts, params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	_, err := a.Approve(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Refresh(context.Background(), params))
	require.Equal(t, swap.ApprovalPending, a.State())
	require.Equal(t, approvalTx, a.View().PendingTx)

	require.NoError(t, a.Refresh(context.Background(), params))
	require.Equal(t, swap.ApprovalApproved, a.State())
	require.Equal(t, common.Hash{}, a.View().PendingTx)
}

func TestAllowanceWatchTimeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil)
	contract.EXPECT().Approve(gomock.Any(), usdc, router, gomock.Any()).Return(approvalTx, nil)

	receipts := mock.NewMockReceiptReader(ctrl)
	receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).Return(nil, nil).AnyTimes()

	params := allowanceParams(10)
	a := swap.NewAllowance(contract, receipts, params, swap.AllowanceConfig{
		PollInterval: time.Millisecond,
		WatchTimeout: 20 * time.Millisecond,
	})
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	_, err := a.Approve(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return a.State() == swap.ApprovalNotApproved }, waitFor, tick)
	require.ErrorIs(t, a.View().Err, apperrors.ErrWatchTimeout)
}

func TestAllowanceTokenChangeDropsPending(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	contract := mock.NewMockTokenContract(ctrl)
	contract.EXPECT().Allowance(gomock.Any(), usdc, wallet, router).Return(big.NewInt(0), nil)
	contract.EXPECT().Approve(gomock.Any(), usdc, router, gomock.Any()).Return(approvalTx, nil)
	contract.EXPECT().Allowance(gomock.Any(), weth, wallet, router).Return(big.NewInt(0), nil)

	receipts := mock.NewMockReceiptReader(ctrl)
	receipts.EXPECT().TransactionReceipt(gomock.Any(), approvalTx).Return(nil, nil).AnyTimes()

	params := allowanceParams(10)
	a := fastAllowance(contract, receipts, params)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background(), params))
	_, err := a.Approve(context.Background())
	require.NoError(t, err)

	other := allowanceParams(10)
	other.Token = weth
	require.NoError(t, a.Refresh(context.Background(), other))

	view := a.View()
	require.Equal(t, swap.ApprovalNotApproved, view.State)
	require.Equal(t, common.Hash{}, view.PendingTx)
	require.Equal(t, weth, view.Params.Token)
}
