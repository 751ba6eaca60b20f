package swap

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/dexmath"
)

// Quote defaults.
const (
	DefaultSlippageBps     = 50
	DefaultDeadlineMinutes = 20
)

// QuoteRequest is the user's swap configuration. It is owned by the QuoteEngine
// and only changed through its setters.
type QuoteRequest struct {
	TokenIn         common.Address
	TokenOut        common.Address
	InputAmount     string
	SlippageBps     uint32
	DeadlineMinutes uint32
	ExcludedSources []string
}

func (r QuoteRequest) clone() QuoteRequest {
	r.ExcludedSources = slices.Clone(r.ExcludedSources)
	return r
}

// QuoteState is a read-only snapshot of the engine.
type QuoteState struct {
	Request QuoteRequest
	Trade   *Trade
	Loading bool
	Err     error
}

// QuoteConfig configures a QuoteEngine.
type QuoteConfig struct {
	TokenIn         common.Address
	TokenOut        common.Address
	SlippageBps     uint32
	DeadlineMinutes uint32
	ExcludedSources []string

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// QuoteEngine keeps the most recent Trade for the user's configuration.
//
// Every fetch captures a generation number; its result is applied only if no
// newer fetch was issued meanwhile (last request wins), so responses arriving
// out of order never overwrite fresher state.
type QuoteEngine struct {
	aggregator Aggregator
	registry   TokenRegistry
	account    Account
	logger     logrus.FieldLogger
	now        func() time.Time

	mu        sync.Mutex
	req       QuoteRequest
	trade     *Trade
	err       error
	loading   bool
	gen       uint64
	cancelGen context.CancelFunc
	listeners []func()

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewQuoteEngine creates a QuoteEngine. No quote is fetched until the amount is set
// or Refresh is called.
func NewQuoteEngine(aggregator Aggregator, registry TokenRegistry, account Account, cfg QuoteConfig) *QuoteEngine {
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.DeadlineMinutes == 0 {
		cfg.DeadlineMinutes = DefaultDeadlineMinutes
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, stop := context.WithCancel(context.Background())
	return &QuoteEngine{
		aggregator: aggregator,
		registry:   registry,
		account:    account,
		logger:     cfg.Logger.WithField("component", "quote"),
		now:        cfg.Now,
		req: QuoteRequest{
			TokenIn:         cfg.TokenIn,
			TokenOut:        cfg.TokenOut,
			SlippageBps:     cfg.SlippageBps,
			DeadlineMinutes: cfg.DeadlineMinutes,
			ExcludedSources: slices.Clone(cfg.ExcludedSources),
		},
		ctx:  ctx,
		stop: stop,
	}
}

// OnChange registers fn to be called after the state changed. fn runs outside
// the engine lock and should read State itself rather than rely on ordering.
func (e *QuoteEngine) OnChange(fn func()) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// State returns a snapshot of the engine. The Trade is a private copy.
func (e *QuoteEngine) State() QuoteState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *QuoteEngine) stateLocked() QuoteState {
	return QuoteState{
		Request: e.req.clone(),
		Trade:   e.trade.Clone(),
		Loading: e.loading,
		Err:     e.err,
	}
}

// SetTokenIn selects the input token. Picking the current output token swaps
// the pair instead of producing an identical-tokens state.
func (e *QuoteEngine) SetTokenIn(addr common.Address) {
	e.update(func(r *QuoteRequest) bool {
		if r.TokenIn == addr {
			return false
		}
		if r.TokenOut == addr {
			r.TokenOut = r.TokenIn
		}
		r.TokenIn = addr
		return true
	}, true)
}

// SetTokenOut selects the output token, swapping the pair when addr is the
// current input token.
func (e *QuoteEngine) SetTokenOut(addr common.Address) {
	e.update(func(r *QuoteRequest) bool {
		if r.TokenOut == addr {
			return false
		}
		if r.TokenIn == addr {
			r.TokenIn = r.TokenOut
		}
		r.TokenOut = addr
		return true
	}, true)
}

// SwitchTokens swaps input and output tokens in one step.
func (e *QuoteEngine) SwitchTokens() {
	e.update(func(r *QuoteRequest) bool {
		r.TokenIn, r.TokenOut = r.TokenOut, r.TokenIn
		return true
	}, true)
}

// SetInputAmount sets the human-entered amount. Input that does not match the
// decimal grammar is ignored, the previous value is kept and false is returned.
func (e *QuoteEngine) SetInputAmount(s string) bool {
	amount, ok := NormalizeAmountInput(s)
	if !ok {
		return false
	}
	e.update(func(r *QuoteRequest) bool {
		if r.InputAmount == amount {
			return false
		}
		r.InputAmount = amount
		return true
	}, false)
	return true
}

// SetSlippage sets the slippage tolerance in basis points.
func (e *QuoteEngine) SetSlippage(bps uint32) error {
	if bps > dexmath.BpsDenominator {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "slippage %d bps above 100%%", bps)
	}
	e.update(func(r *QuoteRequest) bool {
		if r.SlippageBps == bps {
			return false
		}
		r.SlippageBps = bps
		return true
	}, false)
	return nil
}

// SetDeadline sets the transaction deadline in minutes.
func (e *QuoteEngine) SetDeadline(minutes uint32) error {
	if minutes == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "deadline must be positive")
	}
	e.update(func(r *QuoteRequest) bool {
		if r.DeadlineMinutes == minutes {
			return false
		}
		r.DeadlineMinutes = minutes
		return true
	}, false)
	return nil
}

// SetExcludedSources sets the liquidity sources the aggregator must not route through.
func (e *QuoteEngine) SetExcludedSources(sources []string) {
	sorted := slices.Clone(sources)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	e.update(func(r *QuoteRequest) bool {
		if slices.Equal(r.ExcludedSources, sorted) {
			return false
		}
		r.ExcludedSources = sorted
		return true
	}, false)
}

// update applies mutate under the lock and, if it changed anything, supersedes
// any request in flight and schedules a fresh quote. invalidate drops the
// current trade immediately.
func (e *QuoteEngine) update(mutate func(r *QuoteRequest) bool, invalidate bool) {
	e.mu.Lock()
	if e.closed || !mutate(&e.req) {
		e.mu.Unlock()
		return
	}
	// a quote still in flight was asked for the old configuration.
	e.gen++
	if e.cancelGen != nil {
		e.cancelGen()
		e.cancelGen = nil
	}
	if invalidate {
		e.trade = nil
		e.err = nil
	}
	e.wg.Add(1)
	e.mu.Unlock()

	e.notify()

	go func() {
		defer e.wg.Done()
		_ = e.Refresh(e.ctx)
	}()
}

// Refresh requests a new quote for the current configuration and supersedes any
// request still in flight. It returns the aggregator error if this request's
// outcome was applied; a superseded request returns nil and changes nothing.
func (e *QuoteEngine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.Wrap(apperrors.ErrInvalidState, "quote engine closed")
	}
	e.gen++
	gen := e.gen
	if e.cancelGen != nil {
		e.cancelGen()
		e.cancelGen = nil
	}
	req := e.req.clone()

	if req.TokenIn == req.TokenOut || isZeroAmount(req.InputAmount) {
		e.trade = nil
		e.err = nil
		e.loading = false
		e.mu.Unlock()
		e.notify()
		return nil
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancelGen = cancel
	e.loading = true
	e.mu.Unlock()

	e.notify()

	trade, err := e.fetch(reqCtx, req)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.logger.WithField("generation", gen).Debug("discarding superseded quote")
		return nil
	}
	e.cancelGen = nil
	e.loading = false
	if err != nil {
		// keep the last good trade, the caller decides whether to show or retry.
		e.err = err
	} else {
		e.trade = trade
		e.err = nil
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.WithError(err).Warn("quote failed")
	}
	e.notify()
	return err
}

func (e *QuoteEngine) fetch(ctx context.Context, req QuoteRequest) (*Trade, error) {
	tokenIn, err := e.registry.Resolve(ctx, req.TokenIn)
	if err != nil {
		return nil, errors.Wrap(err, "e.registry.Resolve")
	}

	amountIn, err := dexmath.ParseUnits(req.InputAmount, tokenIn.Decimals)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, err.Error())
	}
	if amountIn.Sign() == 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "amount below token precision")
	}

	trade, err := e.aggregator.Quote(ctx, QuoteParams{
		TokenIn:         req.TokenIn,
		TokenOut:        req.TokenOut,
		AmountIn:        amountIn,
		SlippageBps:     req.SlippageBps,
		Deadline:        e.now().Add(time.Duration(req.DeadlineMinutes) * time.Minute),
		Recipient:       e.account.Address,
		ExcludedSources: req.ExcludedSources,
	})
	if err != nil {
		return nil, errors.Wrap(err, "e.aggregator.Quote")
	}
	if trade == nil {
		return nil, errors.Wrap(apperrors.ErrAggregator, "empty trade")
	}

	return trade.Clone(), nil
}

func (e *QuoteEngine) notify() {
	e.mu.Lock()
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Close stops background fetches and waits for them to finish.
func (e *QuoteEngine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.stop()
	e.wg.Wait()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
