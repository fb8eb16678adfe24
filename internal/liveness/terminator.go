package liveness

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Terminator performs an orderly process shutdown exactly once.
//
// Terminate is guarded against double invocation, so a watchdog tick and
// an explicit shutdown path racing each other result in a single shutdown.
// Once invoked there is no undo and nothing to retry: the shutdown
// function runs, and if the process is still alive after the escalation
// window the hard-exit function fires unconditionally.
type Terminator struct {
	clk        clock.Clock
	escalation time.Duration
	shutdown   func()
	hardExit   func(code int)
	logger     *slog.Logger

	once sync.Once
}

// NewTerminator creates a [Terminator].
//
// shutdown is the orderly path, typically cancelling the application's run
// context. hardExit may be nil, in which case [os.Exit] is used; tests
// inject a recorder instead.
func NewTerminator(clk clock.Clock, escalation time.Duration, shutdown func(), hardExit func(int), logger *slog.Logger) *Terminator {
	if hardExit == nil {
		hardExit = os.Exit
	}
	return &Terminator{
		clk:        clk,
		escalation: escalation,
		shutdown:   shutdown,
		hardExit:   hardExit,
		logger:     logger,
	}
}

// Terminate initiates shutdown. Calls after the first are no-ops.
//
// The process exits with code 0: terminating because the tab closed is the
// expected end of life for this server, not a failure.
func (t *Terminator) Terminate(reason string) {
	t.once.Do(func() {
		t.logger.Info("shutting down", "reason", reason)

		// arm escalation before the orderly path so a stalled shutdown
		// function cannot postpone the hard exit
		t.clk.AfterFunc(t.escalation, func() {
			t.logger.Error("graceful shutdown stalled, forcing exit", "after", t.escalation.String())
			t.hardExit(0)
		})

		t.shutdown()
	})
}
