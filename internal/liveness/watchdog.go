package liveness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Watchdog periodically evaluates the [Session] and decides whether the
// client is gone for good. It is the sole component allowed to trigger
// process termination.
//
// The watchdog runs one background goroutine that sleeps between ticks.
// On each tick it asks the session for a [Verdict] and acts on it:
// unarmed and alive verdicts are no-ops, awaiting-refresh holds for the
// next tick, and expired invokes the terminate callback once, after which
// the loop exits.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Watchdog struct {
	session   *Session
	interval  time.Duration
	clk       clock.Clock
	terminate func(reason string)
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWatchdog creates a watchdog that inspects session every interval.
//
// The terminate callback is invoked at most once, from the watchdog's own
// goroutine, when the session's verdict is [VerdictExpired]. The clock is
// injected so tests can drive ticks with a mock.
func NewWatchdog(session *Session, interval time.Duration, clk clock.Clock, terminate func(reason string), logger *slog.Logger) *Watchdog {
	return &Watchdog{
		session:   session,
		interval:  interval,
		clk:       clk,
		terminate: terminate,
		logger:    logger,
	}
}

// Start begins the decision loop in a background goroutine.
//
// Start is non-blocking and idempotent; subsequent calls after the first
// are no-ops, as is Start after Stop. The loop runs until the context is
// cancelled, Stop is called, or a tick decides to terminate.
//
// Cancellation via ctx bypasses the session's decision logic entirely:
// an operator interrupt stops the loop without consulting liveness state.
func (w *Watchdog) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		ticker := w.clk.Ticker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if w.tick() {
					return
				}
			}
		}
	}()
}

// Stop halts the watchdog and waits for its goroutine to exit.
//
// Stop is idempotent and safe to call before Start or after the loop has
// already exited on its own. Because termination cancels the same context
// the loop runs under, the shutdown path the watchdog itself triggers can
// call Stop without re-entering the decision logic.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		if w.cancel != nil {
			w.cancel()
		}
	}
	w.mu.Unlock()

	w.wg.Wait()
}

// tick runs one evaluation of the session. It returns true once the
// terminate callback has been invoked, signalling the loop to exit.
func (w *Watchdog) tick() bool {
	now := w.clk.Now()

	switch v := w.session.Verdict(now); v {
	case VerdictAwaitingRefresh:
		w.logger.Debug("heartbeats stopped, grace window open", "verdict", v.String())
		return false

	case VerdictExpired:
		idle := now.Sub(w.session.IdleSince()).Round(time.Millisecond)
		w.logger.Info("client gone, shutting down", "idle", idle.String())
		w.terminate(fmt.Sprintf("no heartbeat for %s (tab closed)", idle))
		return true

	default:
		// unarmed or alive: nothing to do
		return false
	}
}
