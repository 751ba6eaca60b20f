package swap

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/dexmath"
)

// TxStatus is the lifecycle status of a submitted swap.
type TxStatus string

// Transaction statuses.
const (
	TxSubmitting           TxStatus = "submitting"
	TxAwaitingConfirmation TxStatus = "awaiting_confirmation"
	TxSuccess              TxStatus = "success"
	TxFailed               TxStatus = "failed"
	TxTimedOut             TxStatus = "timed_out"
)

// Terminal reports whether no further transition can happen.
func (s TxStatus) Terminal() bool {
	return s == TxSuccess || s == TxFailed || s == TxTimedOut
}

// DefaultTxPollInterval is how often an awaiting transaction's receipt is polled.
const DefaultTxPollInterval = 10 * time.Second

// TransactionRecord is the confirmation view's transaction. Err is only set when
// the submission failed before a hash was obtained.
type TransactionRecord struct {
	ID       uint64
	Hash     common.Hash
	Status   TxStatus
	Err      error
	Trade    *Trade
	Request  TxRequest
	GasLimit uint64

	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// ErrorMessage is the message to display for a failed submission.
func (r TransactionRecord) ErrorMessage() string {
	return ErrorMessage(r.Err)
}

func (r *TransactionRecord) clone() TransactionRecord {
	c := *r
	c.Trade = r.Trade.Clone()
	c.Request.Data = append([]byte(nil), r.Request.Data...)
	c.Request.Value = cloneInt(r.Request.Value)
	return c
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	PollInterval time.Duration
	// WatchTimeout bounds how long a transaction is awaited. Zero polls forever.
	WatchTimeout time.Duration
	Logger       logrus.FieldLogger
	Now          func() time.Time
}

// Tracker submits a swap built from a frozen trade snapshot and follows it until
// it is mined. A tracker holds at most one record, the one the confirmation view
// shows; Dismiss discards it.
type Tracker struct {
	provider Provider
	cfg      TrackerConfig
	logger   logrus.FieldLogger

	mu     sync.Mutex
	record *TransactionRecord
	watch  *watch
	seq    uint64
}

// NewTracker creates a Tracker.
func NewTracker(provider Provider, cfg TrackerConfig) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultTxPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Tracker{
		provider: provider,
		cfg:      cfg,
		logger:   cfg.Logger.WithField("component", "tracker"),
	}
}

// Record returns a copy of the current record; ok is false when idle.
func (t *Tracker) Record() (TransactionRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record == nil {
		return TransactionRecord{}, false
	}
	return t.record.clone(), true
}

// Submit estimates gas for the trade, pads it and broadcasts the swap from
// account. The trade is copied first; later quote refreshes cannot reach the
// submitted transaction. A failure before a hash is obtained ends in the failed
// state with the error recorded, and no receipt polling starts.
func (t *Tracker) Submit(ctx context.Context, trade *Trade, account Account) (TransactionRecord, error) {
	if trade == nil {
		return TransactionRecord{}, apperrors.ErrNoTrade
	}

	t.mu.Lock()
	if t.record != nil && !t.record.Status.Terminal() {
		t.mu.Unlock()
		return TransactionRecord{}, errors.Wrapf(apperrors.ErrTxInProgress, "transaction %d is %s", t.record.ID, t.record.Status)
	}
	t.stopWatchLocked()

	snapshot := trade.Clone()
	now := t.cfg.Now()
	t.seq++
	rec := &TransactionRecord{
		ID:          t.seq,
		Status:      TxSubmitting,
		Trade:       snapshot,
		Request:     snapshot.SwapRequest(account.Address),
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	t.record = rec
	req := rec.Request
	t.mu.Unlock()

	logger := t.logger.WithField("record", rec.ID)

	hash, gasLimit, err := t.broadcast(ctx, req)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record != rec {
		// the confirmation view was dismissed meanwhile; the chain keeps the tx.
		logger.WithField("tx", hash.Hex()).Info("submission finished after dismissal")
		out := rec.clone()
		out.Hash, out.GasLimit = hash, gasLimit
		return out, err
	}

	rec.GasLimit = gasLimit
	rec.UpdatedAt = t.cfg.Now()
	if err != nil {
		rec.Status = TxFailed
		rec.Err = err
		logger.WithError(err).Warn("swap submission failed")
		return rec.clone(), err
	}

	rec.Hash = hash
	rec.Status = TxAwaitingConfirmation
	t.startWatchLocked(rec)

	logger.WithField("tx", hash.Hex()).Info("swap submitted")
	return rec.clone(), nil
}

func (t *Tracker) broadcast(ctx context.Context, req TxRequest) (common.Hash, uint64, error) {
	estimated, err := t.provider.EstimateGas(ctx, req)
	if err != nil {
		return common.Hash{}, 0, errors.Wrap(err, "t.provider.EstimateGas")
	}

	req.Gas = dexmath.MarginedGasLimitUint64(estimated)

	hash, err := t.provider.SendTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, req.Gas, errors.Wrap(err, "t.provider.SendTransaction")
	}
	return hash, req.Gas, nil
}

// startWatchLocked must be called with t.mu held.
func (t *Tracker) startWatchLocked(rec *TransactionRecord) {
	w := newWatch()
	w.start(t.cfg.PollInterval, t.cfg.WatchTimeout,
		func(ctx context.Context) bool {
			return t.pollReceipt(ctx, w, rec)
		},
		func() {
			t.settle(w, rec, TxTimedOut)
		},
	)
	t.watch = w
}

func (t *Tracker) pollReceipt(ctx context.Context, w *watch, rec *TransactionRecord) bool {
	receipt, err := t.provider.TransactionReceipt(ctx, rec.Hash)
	if err != nil {
		t.logger.WithError(err).WithField("tx", rec.Hash.Hex()).Warn("receipt poll failed")
		return false
	}
	if receipt == nil {
		return false
	}

	status := TxFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = TxSuccess
	}
	t.settle(w, rec, status)
	return true
}

func (t *Tracker) settle(w *watch, rec *TransactionRecord, status TxStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.watch != w || t.record != rec {
		return
	}
	t.watch = nil
	rec.Status = status
	rec.UpdatedAt = t.cfg.Now()

	t.logger.WithFields(logrus.Fields{
		"record": rec.ID,
		"tx":     rec.Hash.Hex(),
		"status": status,
	}).Info("swap settled")
}

// Dismiss discards the record and stops polling. The transaction itself, if
// broadcast, is unaffected.
func (t *Tracker) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopWatchLocked()
	t.record = nil
}

// stopWatchLocked must be called with t.mu held.
func (t *Tracker) stopWatchLocked() {
	if t.watch == nil {
		return
	}
	t.watch.Stop()
	t.watch = nil
}

// Close dismisses the record and waits for the poller to exit.
func (t *Tracker) Close() {
	t.mu.Lock()
	w := t.watch
	t.watch = nil
	t.record = nil
	t.mu.Unlock()

	if w != nil {
		w.Stop()
		<-w.Done()
	}
}

// ErrorMessage extracts a displayable message from a submission error,
// preferring the structured message a JSON-RPC error carries in its data.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(map[string]interface{}); ok {
			if msg, ok := data["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}

	return errors.Cause(err).Error()
}
