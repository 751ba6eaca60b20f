package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/infra/erc20/mock"
	"github.com/fleshka4/swap-widget/internal/swap"
)

var (
	eth  = swap.Token{Symbol: "ETH", Name: "Ether", Decimals: 18}
	usdc = swap.Token{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tokens  []swap.Token
		wantErr require.ErrorAssertionFunc
	}{
		{name: "ok", tokens: []swap.Token{usdc}, wantErr: require.NoError},
		{name: "missing address", tokens: []swap.Token{{Symbol: "X"}}, wantErr: require.Error},
		{name: "duplicate", tokens: []swap.Token{usdc, usdc}, wantErr: require.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(eth, tt.tokens, nil, 0, nil)
			tt.wantErr(t, err)
		})
	}
}

func TestResolveListed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// listed tokens never hit the chain.
	r, err := New(eth, []swap.Token{usdc}, mock.NewMockClient(ctrl), 0, nil)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), swap.NativeTokenAddress)
	require.NoError(t, err)
	require.Equal(t, "ETH", got.Symbol)
	require.EqualValues(t, 18, got.Decimals)

	got, err = r.Resolve(context.Background(), usdc.Address)
	require.NoError(t, err)
	require.Equal(t, usdc, got)

	listed := r.Listed()
	require.Len(t, listed, 2)
	require.Equal(t, swap.NativeTokenAddress, listed[0].Address)
	require.Equal(t, usdc.Address, listed[1].Address)
}

func TestResolveOnChainIsCached(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := mock.NewMockClient(ctrl)
	reader.EXPECT().
		Metadata(gomock.Any(), dai).
		Return(swap.Token{Address: dai, Symbol: "DAI", Decimals: 18}, nil).
		Times(1)

	r, err := New(eth, nil, reader, 4, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), dai)
		require.NoError(t, err)
		require.Equal(t, "DAI", got.Symbol)
	}
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := mock.NewMockClient(ctrl)
	reader.EXPECT().Metadata(gomock.Any(), dai).Return(swap.Token{}, errors.New("execution reverted")).Times(2)

	r, err := New(eth, nil, reader, 0, nil)
	require.NoError(t, err)

	// failures are not cached.
	for i := 0; i < 2; i++ {
		_, err = r.Resolve(context.Background(), dai)
		require.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	}

	offline, err := New(eth, nil, nil, 0, nil)
	require.NoError(t, err)
	_, err = offline.Resolve(context.Background(), dai)
	require.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}
