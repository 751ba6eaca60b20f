package service

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/service/dto"
	"github.com/fleshka4/swap-widget/internal/service/validate"
	"github.com/fleshka4/swap-widget/internal/swap"
)

// Service represents interface for the widget session.
type Service interface {
	View(ctx context.Context) dto.SessionView
	SetTokens(ctx context.Context, req dto.TokensRequest) (dto.SessionView, error)
	SwitchTokens(ctx context.Context) dto.SessionView
	SetAmount(ctx context.Context, amount string) (dto.SessionView, bool)
	UpdateSettings(ctx context.Context, req dto.SettingsRequest) (dto.SessionView, error)
	RefreshQuote(ctx context.Context) (dto.SessionView, error)
	Approve(ctx context.Context) (dto.SessionView, error)
	ConfirmSwap(ctx context.Context) (dto.SessionView, error)
	Dismiss(ctx context.Context) dto.SessionView
	Tokens(ctx context.Context) dto.TokenList
}

// Registry resolves tokens and lists the configured ones.
type Registry interface {
	swap.TokenRegistry
	Listed() []swap.Token
}

// Options configures a Session.
type Options struct {
	// ChainID is the chain the session is configured for.
	ChainID     uint64
	Sources     []string
	ExplorerURL string
	Logger      logrus.FieldLogger
}

// Session wires the quote engine, allowance state machine and transaction
// tracker together for one wallet. Every quote change re-derives what has to
// be approved; allowance reads are serialised on one goroutine so that the
// latest selection is always checked last.
type Session struct {
	account   swap.Account
	opts      Options
	engine    *swap.QuoteEngine
	allowance *swap.Allowance
	tracker   *swap.Tracker
	registry  Registry
	logger    logrus.FieldLogger

	mu      sync.Mutex
	pending swap.AllowanceParams
	synced  bool
	kick    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a Session and starts following engine changes.
func NewSession(
	account swap.Account,
	engine *swap.QuoteEngine,
	allowance *swap.Allowance,
	tracker *swap.Tracker,
	registry Registry,
	opts Options,
) *Session {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		account:   account,
		opts:      opts,
		engine:    engine,
		allowance: allowance,
		tracker:   tracker,
		registry:  registry,
		logger:    opts.Logger.WithField("component", "session"),
		kick:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.wg.Add(1)
	go s.allowanceLoop()

	engine.OnChange(s.syncAllowance)
	s.syncAllowance()

	return s
}

// syncAllowance schedules an allowance check when the subject or the required
// amount changed.
func (s *Session) syncAllowance() {
	q := s.engine.State()
	params := s.allowanceParams(q)

	s.mu.Lock()
	if s.synced && sameParams(s.pending, params) {
		s.mu.Unlock()
		return
	}
	if s.synced && q.Trade == nil && s.pending.Token == params.Token {
		// no router to check against until the next quote; keep any pending approval.
		s.mu.Unlock()
		return
	}
	s.pending = params
	s.synced = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) allowanceLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.kick:
		}

		s.mu.Lock()
		params := s.pending
		s.mu.Unlock()

		if err := s.allowance.Refresh(s.ctx, params); err != nil {
			s.logger.WithError(err).WithField("token", params.Token.Hex()).Warn("allowance check failed")
		}
	}
}

func (s *Session) allowanceParams(q swap.QuoteState) swap.AllowanceParams {
	params := swap.AllowanceParams{
		Token: q.Request.TokenIn,
		Owner: s.account.Address,
	}
	if q.Trade != nil && q.Trade.TokenIn == q.Request.TokenIn {
		params.Spender = q.Trade.RouterAddress
		params.Required = q.Trade.InputAmount
	}
	return params
}

func sameParams(a, b swap.AllowanceParams) bool {
	if a.Token != b.Token || a.Owner != b.Owner || a.Spender != b.Spender {
		return false
	}
	if a.Required == nil || b.Required == nil {
		return a.Required == b.Required
	}
	return a.Required.Cmp(b.Required) == 0
}

// coversTrade reports whether allowance params were evaluated for trade: same
// input token and router, and at least the trade's input amount.
func coversTrade(p swap.AllowanceParams, t *swap.Trade) bool {
	if t == nil || p.Token != t.TokenIn {
		return false
	}
	if swap.IsNative(t.TokenIn) {
		return true
	}
	return p.Spender == t.RouterAddress &&
		p.Required != nil && t.InputAmount != nil &&
		p.Required.Cmp(t.InputAmount) >= 0
}

func (s *Session) supported() bool {
	return s.account.ChainID == s.opts.ChainID
}

func (s *Session) checkAccount() error {
	if s.account.Address == (common.Address{}) {
		return errors.Wrap(apperrors.ErrInvalidState, "no wallet connected")
	}
	if !s.supported() {
		return errors.Wrapf(apperrors.ErrUnsupportedNetwork, "connected to chain %d, expected %d", s.account.ChainID, s.opts.ChainID)
	}
	return nil
}

// View returns the current session state.
func (s *Session) View(ctx context.Context) dto.SessionView {
	return s.view(ctx)
}

// SetTokens selects the pair.
func (s *Session) SetTokens(ctx context.Context, req dto.TokensRequest) (dto.SessionView, error) {
	if err := validate.TokensRequestValidate(req); err != nil {
		return s.view(ctx), err
	}

	if req.TokenIn != nil {
		s.engine.SetTokenIn(*req.TokenIn)
	}
	if req.TokenOut != nil {
		s.engine.SetTokenOut(*req.TokenOut)
	}

	return s.view(ctx), nil
}

// SwitchTokens swaps input and output.
func (s *Session) SwitchTokens(ctx context.Context) dto.SessionView {
	s.engine.SwitchTokens()
	return s.view(ctx)
}

// SetAmount sets the typed amount; ok is false when the input was ignored.
func (s *Session) SetAmount(ctx context.Context, amount string) (dto.SessionView, bool) {
	ok := s.engine.SetInputAmount(amount)
	return s.view(ctx), ok
}

// UpdateSettings applies slippage, deadline and excluded sources.
func (s *Session) UpdateSettings(ctx context.Context, req dto.SettingsRequest) (dto.SessionView, error) {
	if err := validate.SettingsRequestValidate(req, s.opts.Sources); err != nil {
		return s.view(ctx), err
	}

	if req.SlippageBps != nil {
		if err := s.engine.SetSlippage(*req.SlippageBps); err != nil {
			return s.view(ctx), errors.Wrap(err, "s.engine.SetSlippage")
		}
	}
	if req.DeadlineMinutes != nil {
		if err := s.engine.SetDeadline(*req.DeadlineMinutes); err != nil {
			return s.view(ctx), errors.Wrap(err, "s.engine.SetDeadline")
		}
	}
	if req.SetExcluded {
		s.engine.SetExcludedSources(req.ExcludedSources)
	}

	return s.view(ctx), nil
}

// RefreshQuote fetches a new quote for the current configuration.
func (s *Session) RefreshQuote(ctx context.Context) (dto.SessionView, error) {
	err := s.engine.Refresh(ctx)
	if err != nil {
		err = errors.Wrap(err, "s.engine.Refresh")
	}
	return s.view(ctx), err
}

// Approve submits the approval of the input token for the quoted router.
func (s *Session) Approve(ctx context.Context) (dto.SessionView, error) {
	if err := s.checkAccount(); err != nil {
		return s.view(ctx), err
	}

	if _, err := s.allowance.Approve(ctx); err != nil {
		return s.view(ctx), errors.Wrap(err, "s.allowance.Approve")
	}

	return s.view(ctx), nil
}

// ConfirmSwap submits the current trade. The tracker keeps its own copy, so
// quote refreshes after this call do not affect the submitted swap.
func (s *Session) ConfirmSwap(ctx context.Context) (dto.SessionView, error) {
	if err := s.checkAccount(); err != nil {
		return s.view(ctx), err
	}

	q := s.engine.State()
	if q.Trade == nil || q.Trade.TokenIn != q.Request.TokenIn || q.Trade.TokenOut != q.Request.TokenOut {
		return s.view(ctx), apperrors.ErrNoTrade
	}
	a := s.allowance.View()
	if a.State != swap.ApprovalApproved {
		return s.view(ctx), errors.Wrapf(apperrors.ErrInvalidState, "allowance is %s", a.State)
	}
	if a.Loading || !coversTrade(a.Params, q.Trade) {
		return s.view(ctx), errors.Wrap(apperrors.ErrInvalidState, "allowance not yet checked for this trade")
	}

	if _, err := s.tracker.Submit(ctx, q.Trade, s.account); err != nil {
		return s.view(ctx), errors.Wrap(err, "s.tracker.Submit")
	}

	return s.view(ctx), nil
}

// Dismiss closes the confirmation view.
func (s *Session) Dismiss(ctx context.Context) dto.SessionView {
	s.tracker.Dismiss()
	return s.view(ctx)
}

// Tokens lists the selectable tokens and liquidity sources.
func (s *Session) Tokens(_ context.Context) dto.TokenList {
	return dto.TokenList{
		Tokens:  s.registry.Listed(),
		Sources: slices.Clone(s.opts.Sources),
	}
}

// Close stops background work of the session and its components.
func (s *Session) Close() {
	s.cancel()
	s.engine.Close()
	s.wg.Wait()
	s.allowance.Close()
	s.tracker.Close()
}
