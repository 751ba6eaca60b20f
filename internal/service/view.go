package service

import (
	"context"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fleshka4/swap-widget/internal/dexmath"
	"github.com/fleshka4/swap-widget/internal/service/dto"
	"github.com/fleshka4/swap-widget/internal/swap"
)

// Display precision, in significant digits.
const (
	amountDigits  = 6
	minimumDigits = 8
	rateDigits    = 10
)

func (s *Session) view(ctx context.Context) dto.SessionView {
	q := s.engine.State()
	a := s.allowance.View()

	tokenIn := s.token(ctx, q.Request.TokenIn)
	tokenOut := s.token(ctx, q.Request.TokenOut)

	v := dto.SessionView{
		Account: dto.AccountView{
			Address:   s.account.Address.Hex(),
			ChainID:   s.account.ChainID,
			Supported: s.supported(),
		},
		Quote: dto.QuoteView{
			TokenIn:         tokenIn,
			TokenOut:        tokenOut,
			InputAmount:     q.Request.InputAmount,
			SlippageBps:     q.Request.SlippageBps,
			DeadlineMinutes: q.Request.DeadlineMinutes,
			ExcludedSources: slices.Clone(q.Request.ExcludedSources),
			Loading:         q.Loading,
			Error:           swap.ErrorMessage(q.Err),
		},
		Approval: dto.ApprovalView{
			State:   a.State,
			Loading: a.Loading,
			Error:   swap.ErrorMessage(a.Err),
		},
	}
	if a.PendingTx != (common.Hash{}) {
		v.Approval.PendingTx = a.PendingTx.Hex()
	}
	if q.Trade != nil {
		v.Quote.Trade = tradeView(q.Trade, tokenIn, tokenOut, q.Request.SlippageBps)
	}
	if rec, ok := s.tracker.Record(); ok {
		v.Transaction = s.transactionView(ctx, rec)
	}
	v.Action = primaryAction(s.account, s.supported(), q, a, tokenIn)

	return v
}

// token resolves display metadata, falling back to the bare address.
func (s *Session) token(ctx context.Context, addr common.Address) swap.Token {
	t, err := s.registry.Resolve(ctx, addr)
	if err != nil {
		s.logger.WithError(err).WithField("token", addr.Hex()).Debug("token metadata unavailable")
		return swap.Token{Address: addr}
	}
	return t
}

func tradeView(t *swap.Trade, tokenIn, tokenOut swap.Token, slippageBps uint32) *dto.TradeView {
	impact := dexmath.NewPriceImpact(t.AmountInUSD, t.AmountOutUSD)
	minOut := dexmath.MinAmountOut(t.OutputAmount, slippageBps)

	v := &dto.TradeView{
		AmountInRaw:      t.InputAmount.String(),
		AmountOutRaw:     t.OutputAmount.String(),
		AmountIn:         dexmath.FormatUnits(t.InputAmount, tokenIn.Decimals).String(),
		AmountOut:        dexmath.Significant(dexmath.FormatUnits(t.OutputAmount, tokenOut.Decimals), amountDigits),
		MinimumReceived:  dexmath.Significant(dexmath.FormatUnits(minOut, tokenOut.Decimals), minimumDigits),
		Rate:             "--",
		InverseRate:      "--",
		PriceImpact:      impact.Value(),
		PriceImpactText:  impact.String(),
		PriceImpactLevel: string(impact.Severity()),
		AmountInUSD:      t.AmountInUSD,
		AmountOutUSD:     t.AmountOutUSD,
		GasFee:           dexmath.FormatUSD(t.GasUSD),
		RouterAddress:    t.RouterAddress.Hex(),
	}

	if rate, ok := dexmath.Rate(t.InputAmount, t.OutputAmount, tokenIn.Decimals, tokenOut.Decimals); ok {
		v.Rate = dexmath.Significant(rate, rateDigits)
		if inv, ok := dexmath.InverseRate(rate); ok {
			v.InverseRate = dexmath.Significant(inv, rateDigits)
		}
	}

	return v
}

func (s *Session) transactionView(ctx context.Context, rec swap.TransactionRecord) *dto.TransactionView {
	tokenIn := s.token(ctx, rec.Trade.TokenIn)
	tokenOut := s.token(ctx, rec.Trade.TokenOut)

	v := &dto.TransactionView{
		ID:          rec.ID,
		Status:      rec.Status,
		Error:       rec.ErrorMessage(),
		TokenIn:     tokenIn.Symbol,
		TokenOut:    tokenOut.Symbol,
		AmountIn:    dexmath.Significant(dexmath.FormatUnits(rec.Trade.InputAmount, tokenIn.Decimals), amountDigits),
		AmountOut:   dexmath.Significant(dexmath.FormatUnits(rec.Trade.OutputAmount, tokenOut.Decimals), amountDigits),
		GasLimit:    rec.GasLimit,
		SubmittedAt: rec.SubmittedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.Hash != (common.Hash{}) {
		v.Hash = rec.Hash.Hex()
		if s.opts.ExplorerURL != "" {
			v.ExplorerURL = strings.TrimRight(s.opts.ExplorerURL, "/") + "/tx/" + v.Hash
		}
	}
	return v
}

// primaryAction derives the swap button from the session state. The first
// matching condition wins.
func primaryAction(account swap.Account, supported bool, q swap.QuoteState, a swap.AllowanceView, tokenIn swap.Token) dto.ActionView {
	switch {
	case account.Address == (common.Address{}):
		return dto.ActionView{Kind: dto.ActionConnectWallet, Label: "Connect Wallet"}
	case !supported:
		return dto.ActionView{Kind: dto.ActionUnsupportedNetwork, Label: "Unsupported Network", Disabled: true}
	case q.Trade == nil && !q.Loading && q.Err == nil:
		return dto.ActionView{Kind: dto.ActionEnterAmount, Label: "Enter an amount", Disabled: true}
	case q.Loading:
		return dto.ActionView{Kind: dto.ActionLoading, Label: "Fetching the best rate", Disabled: true}
	case q.Err != nil:
		return dto.ActionView{Kind: dto.ActionError, Label: swap.ErrorMessage(q.Err), Disabled: true}
	case a.State == swap.ApprovalPending:
		return dto.ActionView{Kind: dto.ActionApproving, Label: "Approving " + symbol(tokenIn), Disabled: true}
	case a.Loading || a.State == swap.ApprovalUnknown || !coversTrade(a.Params, q.Trade):
		return dto.ActionView{Kind: dto.ActionCheckingAllowance, Label: "Checking Allowance", Disabled: true}
	case a.State == swap.ApprovalNotApproved:
		return dto.ActionView{Kind: dto.ActionApprove, Label: "Approve " + symbol(tokenIn)}
	default:
		return dto.ActionView{Kind: dto.ActionReview, Label: "Swap"}
	}
}

func symbol(t swap.Token) string {
	if t.Symbol == "" {
		return t.Address.Hex()
	}
	return t.Symbol
}
