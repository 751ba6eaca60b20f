package dto

import (
	"github.com/ethereum/go-ethereum/common"
)

// TokensRequest represents a parsed /quote/tokens request.
type TokensRequest struct {
	TokenIn  *common.Address
	TokenOut *common.Address
}

// AmountRequest represents a parsed /quote/amount request. An empty Amount
// clears the input.
type AmountRequest struct {
	Amount string
}

// SettingsRequest represents a parsed /quote/settings request. Absent
// parameters are nil; SetExcluded tells an empty exclusion list from no list.
type SettingsRequest struct {
	SlippageBps     *uint32
	DeadlineMinutes *uint32
	ExcludedSources []string
	SetExcluded     bool
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
