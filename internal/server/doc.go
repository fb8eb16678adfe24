// Package server provides the localhost HTTP server for pomoflow.
//
// This package is internal and serves three concerns: the liveness
// endpoints the watchdog depends on (heartbeat, disconnect, status), the
// settings API (read, update, export, import), and the embedded timer
// page itself.
//
// The server participates in the liveness protocol only as plumbing: its
// handlers record timestamps into the session and return immediately.
// All termination decisions belong to the watchdog.
//
// Lifecycle follows context cancellation: Start binds the listener and
// returns, and cancelling the context passed to Start triggers a bounded
// graceful shutdown.
package server
