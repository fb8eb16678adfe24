package liveness

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// terminateRecorder counts terminate invocations for assertions.
type terminateRecorder struct {
	calls atomic.Int32
}

func (r *terminateRecorder) terminate(string) { r.calls.Add(1) }

func (r *terminateRecorder) count() int32 { return r.calls.Load() }

// harness bundles a mock clock, session, and watchdog for scenario tests.
// Scenarios drive the decision loop tick by tick: advance the clock to a
// point in simulated time, then evaluate one tick, exactly as the running
// loop would on its poll interval.
type harness struct {
	mock     *clock.Mock
	session  *Session
	watchdog *Watchdog
	rec      *terminateRecorder
}

func newHarness(timeout, grace, poll time.Duration) *harness {
	mock := clock.NewMock()
	mock.Set(base)

	session := NewSession(timeout, grace)
	rec := &terminateRecorder{}
	wd := NewWatchdog(session, poll, mock, rec.terminate, testLogger())

	return &harness{mock: mock, session: session, watchdog: wd, rec: rec}
}

// runUntil advances simulated time in poll-interval steps up to deadline,
// evaluating one watchdog tick per step. Returns the simulated time at
// which termination fired, or the zero time if it never did.
func (h *harness) runUntil(deadline time.Time, poll time.Duration) time.Time {
	for h.mock.Now().Before(deadline) {
		h.mock.Add(poll)
		if h.watchdog.tick() {
			return h.mock.Now()
		}
	}
	return time.Time{}
}

func TestWatchdog_SteadyHeartbeatsNeverTerminate(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	// heartbeats every 2s for a minute, well within the 10s timeout
	for i := 0; i < 30; i++ {
		h.session.Heartbeat(h.mock.Now())
		h.mock.Add(time.Second)
		if h.watchdog.tick() {
			t.Fatalf("tick() terminated at %v with steady heartbeats", h.mock.Now())
		}
		h.mock.Add(time.Second)
		if h.watchdog.tick() {
			t.Fatalf("tick() terminated at %v with steady heartbeats", h.mock.Now())
		}
	}

	if h.rec.count() != 0 {
		t.Errorf("terminate called %d times, want 0", h.rec.count())
	}
}

func TestWatchdog_UnarmedNeverTerminates(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	// no heartbeat ever arrives; an hour of ticks must change nothing
	if at := h.runUntil(base.Add(time.Hour), time.Second); !at.IsZero() {
		t.Fatalf("terminated at %v before first heartbeat", at)
	}
	if h.rec.count() != 0 {
		t.Errorf("terminate called %d times, want 0", h.rec.count())
	}
}

// Scenario from the heartbeat design: timeout 10s, grace 3s, poll 1s.
// Heartbeats at t=0,2,4,6; disconnect at t=6.5 (grace deadline 9.5);
// a refresh heartbeat at t=8. The process must never terminate.
func TestWatchdog_RefreshWithinGraceSurvives(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	h.session.Heartbeat(base)

	// advance in half-second steps so the t=6.5 disconnect lands between
	// ticks; ticks fire on whole seconds
	for step := 1; step <= 34; step++ {
		now := base.Add(time.Duration(step) * 500 * time.Millisecond)
		h.mock.Set(now)

		switch step {
		case 4, 8, 12: // t=2, 4, 6
			h.session.Heartbeat(now)
		case 13: // t=6.5: tab unloads for a reload
			h.session.Disconnect(now)
		case 16: // t=8: the reloaded page's first heartbeat
			h.session.Heartbeat(now)
		}

		if step%2 == 0 && h.watchdog.tick() {
			t.Fatalf("terminated at t=%v during a page refresh", now.Sub(base))
		}
	}

	if got := h.session.Verdict(base.Add(8 * time.Second)); got != VerdictAlive {
		t.Errorf("Verdict() after refresh = %v, want %v", got, VerdictAlive)
	}
	if h.rec.count() != 0 {
		t.Errorf("terminate called %d times, want 0", h.rec.count())
	}
}

// Same configuration, but no heartbeat follows the disconnect. The grace
// deadline is t=9.5, so the first tick at or after it (t=10) terminates.
func TestWatchdog_DisconnectWithoutRefreshTerminates(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	h.session.Heartbeat(base)

	var terminatedAt time.Duration
	for step := 1; step <= 60; step++ {
		now := base.Add(time.Duration(step) * 500 * time.Millisecond)
		h.mock.Set(now)

		switch step {
		case 4, 8, 12: // t=2, 4, 6
			h.session.Heartbeat(now)
		case 13: // t=6.5: tab closes for good
			h.session.Disconnect(now)
		}

		if step%2 == 0 && h.watchdog.tick() {
			terminatedAt = now.Sub(base)
			break
		}
	}

	if want := 10 * time.Second; terminatedAt != want {
		t.Errorf("terminated at t=%v, want t=%v (first tick at or after the 9.5s grace deadline)", terminatedAt, want)
	}
	if h.rec.count() != 1 {
		t.Errorf("terminate called %d times, want 1", h.rec.count())
	}
}

// Heartbeats at t=0,2,4, then silence with no disconnect beacon ever
// (forced tab kill). Termination at the first tick after t=14 (4 + 10).
func TestWatchdog_SilentTimeoutTerminates(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	for _, at := range []time.Duration{0, 2 * time.Second, 4 * time.Second} {
		h.session.Heartbeat(base.Add(at))
	}

	at := h.runUntil(base.Add(30*time.Second), time.Second)
	if want := base.Add(15 * time.Second); !at.Equal(want) {
		t.Errorf("terminated at %v, want %v (first tick past t=14)", at, want)
	}
}

func TestWatchdog_GraceWindowHoldsEachTick(t *testing.T) {
	h := newHarness(4*time.Second, 10*time.Second, time.Second)

	h.session.Heartbeat(base)
	h.session.Disconnect(base.Add(time.Second)) // deadline base+11s

	// idle exceeds the 4s timeout from t=5 onward, but every tick inside
	// the window must hold
	for h.mock.Now().Before(base.Add(10 * time.Second)) {
		h.mock.Add(time.Second)
		if h.watchdog.tick() {
			t.Fatalf("terminated at %v, inside grace window", h.mock.Now())
		}
	}

	h.mock.Add(time.Second) // t=11, deadline reached
	if !h.watchdog.tick() {
		t.Errorf("tick() at %v = false, want termination at grace deadline", h.mock.Now())
	}
}

func TestWatchdog_StartStopLifecycle(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	// Stop before Start is a safe no-op
	h.watchdog.Stop()

	wd := NewWatchdog(h.session, time.Second, h.mock, h.rec.terminate, testLogger())
	wd.Start(context.Background())
	wd.Start(context.Background()) // idempotent

	// both calls must complete without panic or deadlock
	wd.Stop()
	wd.Stop()

	if h.rec.count() != 0 {
		t.Errorf("terminate called %d times during clean stop, want 0", h.rec.count())
	}
}

func TestWatchdog_LoopTerminatesViaTicker(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(base)

	session := NewSession(2*time.Second, time.Second)
	session.Heartbeat(mock.Now())

	fired := make(chan string, 1)
	wd := NewWatchdog(session, time.Second, mock, func(reason string) { fired <- reason }, testLogger())
	wd.Start(context.Background())
	defer wd.Stop()

	// advance past the timeout one poll interval at a time; the mock
	// clock delivers ticker fires to the running loop
	deadline := time.After(2 * time.Second)
	for {
		mock.Add(time.Second)
		select {
		case reason := <-fired:
			if reason == "" {
				t.Error("terminate reason is empty")
			}
			return
		case <-deadline:
			t.Fatal("watchdog loop never terminated after heartbeat timeout")
		default:
		}
	}
}

func TestWatchdog_ContextCancelBypassesDecision(t *testing.T) {
	h := newHarness(10*time.Second, 3*time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	h.watchdog.Start(ctx)

	// an operator interrupt stops the loop without a termination decision
	cancel()
	h.watchdog.Stop()

	if h.rec.count() != 0 {
		t.Errorf("terminate called %d times on external cancel, want 0", h.rec.count())
	}
}
