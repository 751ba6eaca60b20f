package swap

import (
	"context"
	"sync"
	"time"
)

// watch is a cancellable fixed-interval poller. The tick function reports true
// once its subject reached a terminal state, which ends the poll. A watch is
// stopped at most once and releases its ticker when the goroutine exits.
type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newWatch() *watch {
	return &watch{done: make(chan struct{})}
}

// start polls tick every interval until it returns true, the watch is stopped,
// or timeout elapses (timeout <= 0 polls forever). onTimeout runs on the watch
// goroutine. start must be called once.
func (w *watch) start(interval, timeout time.Duration, tick func(ctx context.Context) bool, onTimeout func()) {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx, interval, timeout, tick, onTimeout)
}

func (w *watch) run(ctx context.Context, interval, timeout time.Duration, tick func(ctx context.Context) bool, onTimeout func()) {
	defer close(w.done)
	defer w.once.Do(w.cancel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			if ctx.Err() == nil && onTimeout != nil {
				onTimeout()
			}
			return
		case <-ticker.C:
			// stop may race with a ready tick.
			if ctx.Err() != nil {
				return
			}
			if tick(ctx) {
				return
			}
		}
	}
}

// Stop cancels the watch. It reports whether this call was the one that stopped it.
func (w *watch) Stop() bool {
	stopped := false
	w.once.Do(func() {
		w.cancel()
		stopped = true
	})
	return stopped
}

// Done is closed once the poll goroutine has exited.
func (w *watch) Done() <-chan struct{} {
	return w.done
}
