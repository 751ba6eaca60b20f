package apperrors

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned when the request parameters are invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state of a state machine (e.g. approve while already pending).
	ErrInvalidState = errors.New("invalid state")

	// ErrNoTrade is returned when an operation needs a quoted trade but the
	// quote engine has none.
	ErrNoTrade = errors.New("no trade")

	// ErrTxInProgress is returned when a swap is submitted while another one
	// is still being submitted or awaiting confirmation.
	ErrTxInProgress = errors.New("transaction in progress")

	// ErrWatchTimeout is recorded when a bounded receipt watch gives up.
	ErrWatchTimeout = errors.New("watch timed out")

	// ErrTokenNotFound is returned when the token registry cannot resolve an address.
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnsupportedNetwork is returned when the active account is connected
	// to a chain the session is not configured for.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrAggregator is returned when the route aggregator rejects or fails a quote request.
	ErrAggregator = errors.New("aggregator request failed")
)
