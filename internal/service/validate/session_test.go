package validate

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/fleshka4/swap-widget/internal/service/dto"
)

func addr(hex string) *common.Address {
	a := common.HexToAddress(hex)
	return &a
}

func bps(v uint32) *uint32 { return &v }

func TestTokensRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     dto.TokensRequest
		wantErr assert.ErrorAssertionFunc
	}{
		{name: "both sides", req: dto.TokensRequest{TokenIn: addr("0x123"), TokenOut: addr("0x456")}, wantErr: assert.NoError},
		{name: "input only", req: dto.TokensRequest{TokenIn: addr("0x123")}, wantErr: assert.NoError},
		{name: "output only", req: dto.TokensRequest{TokenOut: addr("0x456")}, wantErr: assert.NoError},
		{name: "nothing", req: dto.TokensRequest{}, wantErr: assert.Error},
		{name: "zero input", req: dto.TokensRequest{TokenIn: &common.Address{}}, wantErr: assert.Error},
		{name: "zero output", req: dto.TokensRequest{TokenIn: addr("0x123"), TokenOut: &common.Address{}}, wantErr: assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.wantErr(t, TokensRequestValidate(tt.req))
		})
	}
}

func TestSettingsRequestValidate(t *testing.T) {
	t.Parallel()

	known := []string{"curve", "uniswap"}

	tests := []struct {
		name    string
		req     dto.SettingsRequest
		wantErr assert.ErrorAssertionFunc
	}{
		{name: "empty", req: dto.SettingsRequest{}, wantErr: assert.NoError},
		{name: "slippage", req: dto.SettingsRequest{SlippageBps: bps(50)}, wantErr: assert.NoError},
		{name: "slippage 100%", req: dto.SettingsRequest{SlippageBps: bps(10_000)}, wantErr: assert.NoError},
		{name: "slippage above 100%", req: dto.SettingsRequest{SlippageBps: bps(10_001)}, wantErr: assert.Error},
		{name: "zero deadline", req: dto.SettingsRequest{DeadlineMinutes: bps(0)}, wantErr: assert.Error},
		{name: "deadline too long", req: dto.SettingsRequest{DeadlineMinutes: bps(24*60 + 1)}, wantErr: assert.Error},
		{name: "known sources", req: dto.SettingsRequest{SetExcluded: true, ExcludedSources: []string{"curve"}}, wantErr: assert.NoError},
		{name: "clear sources", req: dto.SettingsRequest{SetExcluded: true}, wantErr: assert.NoError},
		{name: "unknown source", req: dto.SettingsRequest{SetExcluded: true, ExcludedSources: []string{"sushi"}}, wantErr: assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.wantErr(t, SettingsRequestValidate(tt.req, known))
		})
	}
}
