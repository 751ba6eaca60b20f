package dto

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fleshka4/swap-widget/internal/swap"
)

// ActionKind is what the primary swap button currently does.
type ActionKind string

// Primary actions.
const (
	ActionConnectWallet      ActionKind = "connect_wallet"
	ActionUnsupportedNetwork ActionKind = "unsupported_network"
	ActionEnterAmount        ActionKind = "enter_amount"
	ActionLoading            ActionKind = "loading"
	ActionError              ActionKind = "error"
	ActionCheckingAllowance  ActionKind = "checking_allowance"
	ActionApprove            ActionKind = "approve"
	ActionApproving          ActionKind = "approving"
	ActionReview             ActionKind = "review"
)

// SessionView is the whole widget state a UI renders.
type SessionView struct {
	Account     AccountView      `json:"account"`
	Quote       QuoteView        `json:"quote"`
	Approval    ApprovalView     `json:"approval"`
	Transaction *TransactionView `json:"transaction,omitempty"`
	Action      ActionView       `json:"action"`
}

// AccountView describes the connected wallet.
type AccountView struct {
	Address   string `json:"address"`
	ChainID   uint64 `json:"chain_id"`
	Supported bool   `json:"supported"`
}

// QuoteView is the quote engine state with display values derived from the trade.
type QuoteView struct {
	TokenIn         swap.Token `json:"token_in"`
	TokenOut        swap.Token `json:"token_out"`
	InputAmount     string     `json:"input_amount"`
	SlippageBps     uint32     `json:"slippage_bps"`
	DeadlineMinutes uint32     `json:"deadline_minutes"`
	ExcludedSources []string   `json:"excluded_sources"`
	Loading         bool       `json:"loading"`
	Error           string     `json:"error,omitempty"`
	Trade           *TradeView `json:"trade,omitempty"`
}

// TradeView is a trade formatted for display. Raw amounts are base units.
type TradeView struct {
	AmountInRaw      string  `json:"amount_in_raw"`
	AmountOutRaw     string  `json:"amount_out_raw"`
	AmountIn         string  `json:"amount_in"`
	AmountOut        string  `json:"amount_out"`
	MinimumReceived  string  `json:"minimum_received"`
	Rate             string  `json:"rate"`
	InverseRate      string  `json:"inverse_rate"`
	PriceImpact      float64 `json:"price_impact"`
	PriceImpactText  string  `json:"price_impact_text"`
	PriceImpactLevel string  `json:"price_impact_level"`
	AmountInUSD      float64 `json:"amount_in_usd"`
	AmountOutUSD     float64 `json:"amount_out_usd"`
	GasFee           string  `json:"gas_fee"`
	RouterAddress    string  `json:"router_address"`
}

// ApprovalView is the allowance state of the input token.
type ApprovalView struct {
	State     swap.ApprovalState `json:"state"`
	PendingTx string             `json:"pending_tx,omitempty"`
	Loading   bool               `json:"loading"`
	Error     string             `json:"error,omitempty"`
}

// TransactionView is the confirmation view of a submitted swap. Amounts come
// from the snapshot taken at submit time.
type TransactionView struct {
	ID          uint64        `json:"id"`
	Hash        string        `json:"hash,omitempty"`
	Status      swap.TxStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	ExplorerURL string        `json:"explorer_url,omitempty"`
	TokenIn     string        `json:"token_in"`
	TokenOut    string        `json:"token_out"`
	AmountIn    string        `json:"amount_in"`
	AmountOut   string        `json:"amount_out"`
	GasLimit    uint64        `json:"gas_limit,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ActionView is the primary button.
type ActionView struct {
	Kind     ActionKind `json:"kind"`
	Label    string     `json:"label"`
	Disabled bool       `json:"disabled"`
}

// TokenList is what the token and source pickers offer.
type TokenList struct {
	Tokens  []swap.Token `json:"tokens"`
	Sources []string     `json:"sources"`
}

// TokensRequest selects the pair. A nil side is left unchanged.
type TokensRequest struct {
	TokenIn  *common.Address
	TokenOut *common.Address
}

// SettingsRequest changes quote settings. A nil field is left unchanged.
type SettingsRequest struct {
	SlippageBps     *uint32
	DeadlineMinutes *uint32
	ExcludedSources []string
	SetExcluded     bool
}
