// Package liveness implements the tab-liveness watchdog that keeps the
// server alive only while a browser tab displaying the timer page is open.
//
// The page sends periodic heartbeats while it is loaded and a best-effort
// disconnect beacon when it unloads. Three pieces cooperate:
//
//   - [Session]: the single mutex-guarded record of the most recent
//     heartbeat and disconnect, read concurrently by the watchdog.
//   - [Watchdog]: a periodic background loop that inspects the session and
//     is the sole caller of the terminator.
//   - [Terminator]: performs an orderly, exactly-once shutdown, escalating
//     to a hard process exit if graceful shutdown stalls.
//
// A heartbeat gap alone cannot distinguish "tab closed" from "page
// refreshing", since both produce a gap. The disconnect beacon narrows the
// interpretation: after a disconnect, absence of heartbeats is tolerated
// for a grace period so a reloading page can re-establish itself. The
// beacon is advisory only; browsers do not guarantee unload delivery, so
// the heartbeat timeout remains the authoritative fallback.
//
// The watchdog takes its time from an injected clock, allowing tests to
// drive the decision loop deterministically with a mock clock.
package liveness
