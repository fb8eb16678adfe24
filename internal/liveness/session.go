package liveness

import (
	"sync"
	"time"
)

// Verdict is the watchdog's reading of the session at a point in time.
type Verdict int

const (
	// VerdictUnarmed means no heartbeat has ever been received. The server
	// was just started and the page may not have loaded yet; termination
	// is never appropriate in this state.
	VerdictUnarmed Verdict = iota

	// VerdictAlive means the most recent heartbeat is within the timeout.
	VerdictAlive

	// VerdictAwaitingRefresh means a disconnect beacon arrived with no
	// heartbeat since, and the grace window has not yet elapsed. The page
	// may be reloading; hold and re-evaluate on the next tick.
	VerdictAwaitingRefresh

	// VerdictExpired means the client is gone for good: either the grace
	// window elapsed with no heartbeat after a disconnect, or heartbeats
	// stopped past the timeout with no disconnect ever delivered.
	VerdictExpired
)

// String returns a short name for the verdict, used in logs.
func (v Verdict) String() string {
	switch v {
	case VerdictUnarmed:
		return "unarmed"
	case VerdictAlive:
		return "alive"
	case VerdictAwaitingRefresh:
		return "awaiting_refresh"
	case VerdictExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session tracks the liveness of the single browser client.
//
// Session is the only shared mutable state between the HTTP handlers and
// the watchdog loop. All fields are guarded by one mutex, and [Session.Verdict]
// computes its decision under that same mutex so there is no window between
// reading the last heartbeat and computing the elapsed time.
//
// The session holds no history and is not persisted; it lives and dies with
// the process.
type Session struct {
	mu sync.Mutex

	heartbeatTimeout time.Duration
	gracePeriod      time.Duration

	lastHeartbeatAt  time.Time // zero until the first heartbeat
	lastDisconnectAt time.Time // zero until the first disconnect beacon
	graceDeadline    time.Time // lastDisconnectAt + gracePeriod, zero if unset
	armed            bool      // true once any heartbeat has been received
}

// NewSession creates a [Session] with the given heartbeat timeout and
// grace period. The session starts unarmed.
func NewSession(heartbeatTimeout, gracePeriod time.Duration) *Session {
	return &Session{
		heartbeatTimeout: heartbeatTimeout,
		gracePeriod:      gracePeriod,
	}
}

// Heartbeat records an "I am alive" signal from the page.
//
// The recorded timestamp is monotonically non-decreasing: an out-of-order
// delivery never moves the clock backward. The first heartbeat arms the
// session, making it eligible for timeout-based termination.
//
// Heartbeat deliberately does not clear the disconnect fields. A fresh
// heartbeat after a disconnect is evidence of a page refresh, and that
// reconciliation belongs to [Session.Verdict] so the handler cannot race
// with an in-flight shutdown decision.
func (s *Session) Heartbeat(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.lastHeartbeatAt) {
		s.lastHeartbeatAt = now
	}
	s.armed = true
}

// Disconnect records the page's best-effort "going away" beacon and opens
// the grace window during which absent heartbeats are tolerated.
//
// The beacon is advisory: it shortens the path to a shutdown decision but
// correctness never depends on its delivery.
func (s *Session) Disconnect(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastDisconnectAt = now
	s.graceDeadline = now.Add(s.gracePeriod)
}

// Verdict evaluates the session at the given instant.
//
// The decision table:
//
//  1. Never armed: [VerdictUnarmed].
//  2. Disconnect recorded with no heartbeat since: [VerdictAwaitingRefresh]
//     while the grace window is open, [VerdictExpired] once it elapses.
//     A heartbeat newer than the disconnect resolves it as a page refresh
//     and falls through to the timeout check.
//  3. Idle time within the heartbeat timeout: [VerdictAlive]. This covers
//     both the steady "tab open" state and a resolved refresh.
//  4. Idle past the timeout: [VerdictExpired]. The fallback for browsers
//     where the disconnect beacon never fires.
func (s *Session) Verdict(now time.Time) Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return VerdictUnarmed
	}

	if !s.lastDisconnectAt.IsZero() && !s.lastHeartbeatAt.After(s.lastDisconnectAt) {
		if now.Before(s.graceDeadline) {
			return VerdictAwaitingRefresh
		}
		return VerdictExpired
	}

	if now.Sub(s.lastHeartbeatAt) <= s.heartbeatTimeout {
		return VerdictAlive
	}

	return VerdictExpired
}

// Snapshot is a point-in-time copy of the session, used by the status
// endpoint. Zero time values mean "never".
type Snapshot struct {
	Armed            bool
	LastHeartbeatAt  time.Time
	LastDisconnectAt time.Time
	GraceDeadline    time.Time
}

// Snapshot returns a copy of the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Armed:            s.armed,
		LastHeartbeatAt:  s.lastHeartbeatAt,
		LastDisconnectAt: s.lastDisconnectAt,
		GraceDeadline:    s.graceDeadline,
	}
}

// IdleSince returns the time of the most recent heartbeat, or the zero
// time if none has been received.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeatAt
}
