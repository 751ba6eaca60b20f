package swap

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
)

// ApprovalState is the allowance state of the active token for the router.
type ApprovalState string

// Approval states.
const (
	ApprovalUnknown     ApprovalState = "unknown"
	ApprovalPending     ApprovalState = "pending"
	ApprovalApproved    ApprovalState = "approved"
	ApprovalNotApproved ApprovalState = "not_approved"
)

// DefaultApprovalPollInterval is how often a pending approval's receipt is polled.
const DefaultApprovalPollInterval = 8 * time.Second

// MaxAllowance is the conventional "infinite" approval amount, 2^256-1.
func MaxAllowance() *big.Int {
	return new(big.Int).Set(math.MaxBig256)
}

// AllowanceParams identifies what is being authorised.
type AllowanceParams struct {
	Token    common.Address
	Owner    common.Address
	Spender  common.Address
	Required *big.Int
}

func (p AllowanceParams) sameSubject(o AllowanceParams) bool {
	return p.Token == o.Token && p.Owner == o.Owner && p.Spender == o.Spender
}

func (p AllowanceParams) required() *big.Int {
	if p.Required == nil {
		return new(big.Int)
	}
	return p.Required
}

// AllowanceView is a read-only snapshot of the allowance state machine.
type AllowanceView struct {
	Params    AllowanceParams
	State     ApprovalState
	PendingTx common.Hash
	Loading   bool
	Err       error
}

// AllowanceConfig configures an Allowance.
type AllowanceConfig struct {
	PollInterval time.Duration
	// WatchTimeout bounds how long a pending approval is watched. Zero polls forever.
	WatchTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Allowance tracks whether the spender may move the required amount of a token
// for the owner, issues the approval and watches it until mined.
type Allowance struct {
	contract TokenContract
	receipts ReceiptReader
	cfg      AllowanceConfig
	logger   logrus.FieldLogger

	mu        sync.Mutex
	params    AllowanceParams
	state     ApprovalState
	pendingTx common.Hash
	loading   bool
	approving bool
	err       error
	gen       uint64
	watch     *watch
}

// NewAllowance creates the state machine for params. The native token starts
// approved, anything else unknown until Refresh.
func NewAllowance(contract TokenContract, receipts ReceiptReader, params AllowanceParams, cfg AllowanceConfig) *Allowance {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultApprovalPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}

	return &Allowance{
		contract: contract,
		receipts: receipts,
		cfg:      cfg,
		logger:   cfg.Logger.WithField("component", "allowance"),
		params:   params,
		state:    initialApprovalState(params.Token),
	}
}

func initialApprovalState(token common.Address) ApprovalState {
	if IsNative(token) {
		return ApprovalApproved
	}
	return ApprovalUnknown
}

// View returns a snapshot of the state machine.
func (a *Allowance) View() AllowanceView {
	a.mu.Lock()
	defer a.mu.Unlock()

	params := a.params
	params.Required = cloneInt(a.params.Required)
	return AllowanceView{
		Params:    params,
		State:     a.state,
		PendingTx: a.pendingTx,
		Loading:   a.loading,
		Err:       a.err,
	}
}

// State returns the current approval state.
func (a *Allowance) State() ApprovalState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Refresh reads the on-chain allowance for params and re-evaluates the state.
// It is idempotent. A response is dropped if another Refresh was issued while it
// was in flight. While an approval is pending only an allowance that already
// covers the requirement moves the state (to approved).
func (a *Allowance) Refresh(ctx context.Context, params AllowanceParams) error {
	params.Required = cloneInt(params.Required)

	a.mu.Lock()
	if !a.params.sameSubject(params) {
		// a pending approval for another token or spender is no longer relevant.
		a.stopWatchLocked()
		a.pendingTx = common.Hash{}
		a.state = initialApprovalState(params.Token)
		a.err = nil
	}
	a.params = params
	a.gen++
	gen := a.gen

	if IsNative(params.Token) {
		a.state = ApprovalApproved
		a.loading = false
		a.mu.Unlock()
		return nil
	}
	if params.Owner == (common.Address{}) || params.Spender == (common.Address{}) {
		// nothing to check until there is an account and a router.
		a.loading = false
		a.mu.Unlock()
		return nil
	}
	a.loading = true
	a.mu.Unlock()

	allowance, err := a.contract.Allowance(ctx, params.Token, params.Owner, params.Spender)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen {
		a.logger.WithField("generation", gen).Debug("discarding stale allowance")
		return nil
	}
	a.loading = false
	if err != nil {
		a.err = errors.Wrap(err, "a.contract.Allowance")
		return a.err
	}
	a.err = nil

	covered := params.required().Cmp(allowance) <= 0
	switch {
	case covered:
		a.stopWatchLocked()
		a.pendingTx = common.Hash{}
		a.state = ApprovalApproved
	case a.state == ApprovalPending:
		// the approval is not mined yet; the watcher settles it.
	default:
		a.state = ApprovalNotApproved
	}
	return nil
}

// Approve submits an infinite approval for the spender. It is only valid in the
// not_approved state. On broadcast failure the state is left unchanged.
func (a *Allowance) Approve(ctx context.Context) (common.Hash, error) {
	a.mu.Lock()
	if a.state != ApprovalNotApproved || a.approving {
		state := a.state
		a.mu.Unlock()
		return common.Hash{}, errors.Wrapf(apperrors.ErrInvalidState, "approve in state %s", state)
	}
	a.approving = true
	params := a.params
	a.mu.Unlock()

	hash, err := a.contract.Approve(ctx, params.Token, params.Spender, MaxAllowance())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.approving = false

	if err != nil {
		a.err = errors.Wrap(err, "a.contract.Approve")
		return common.Hash{}, a.err
	}
	if !a.params.sameSubject(params) {
		a.logger.WithField("tx", hash.Hex()).Info("approval sent for a token that is no longer selected")
		return hash, nil
	}

	a.err = nil
	a.state = ApprovalPending
	a.pendingTx = hash
	a.startWatchLocked(hash)

	a.logger.WithField("tx", hash.Hex()).Info("approval pending")
	return hash, nil
}

// startWatchLocked must be called with a.mu held.
func (a *Allowance) startWatchLocked(hash common.Hash) {
	a.stopWatchLocked()

	w := newWatch()
	w.start(a.cfg.PollInterval, a.cfg.WatchTimeout,
		func(ctx context.Context) bool {
			return a.pollReceipt(ctx, w, hash)
		},
		func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.watch != w {
				return
			}
			a.watch = nil
			a.pendingTx = common.Hash{}
			a.state = ApprovalNotApproved
			a.err = errors.Wrapf(apperrors.ErrWatchTimeout, "approval %s", hash.Hex())
			a.logger.WithField("tx", hash.Hex()).Warn("approval watch timed out")
		},
	)
	a.watch = w
}

func (a *Allowance) pollReceipt(ctx context.Context, w *watch, hash common.Hash) bool {
	receipt, err := a.receipts.TransactionReceipt(ctx, hash)
	if err != nil {
		a.logger.WithError(err).WithField("tx", hash.Hex()).Warn("approval receipt poll failed")
		return false
	}
	if receipt == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.watch != w {
		return true
	}
	a.watch = nil
	a.pendingTx = common.Hash{}
	if receipt.Status == types.ReceiptStatusSuccessful {
		a.state = ApprovalApproved
		a.logger.WithField("tx", hash.Hex()).Info("approval mined")
	} else {
		a.state = ApprovalNotApproved
		a.err = errors.Errorf("approval %s reverted", hash.Hex())
		a.logger.WithField("tx", hash.Hex()).Warn("approval reverted")
	}
	return true
}

// stopWatchLocked must be called with a.mu held.
func (a *Allowance) stopWatchLocked() {
	if a.watch == nil {
		return
	}
	a.watch.Stop()
	a.watch = nil
}

// Close stops the receipt watcher and waits for it to exit.
func (a *Allowance) Close() {
	a.mu.Lock()
	w := a.watch
	a.watch = nil
	a.mu.Unlock()

	if w != nil {
		w.Stop()
		<-w.Done()
	}
}
