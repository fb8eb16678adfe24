// Package pomoflow provides a local, ephemeral Pomodoro timer served in
// the browser.
//
// Pomoflow starts a localhost HTTP server, opens the timer page in a
// browser tab, and then lives exactly as long as that tab: the page
// sends periodic heartbeats while open, and once they stop for good the
// server shuts itself down and the process exits. Refreshing the page
// does not kill the server; a disconnect beacon plus a short grace
// window lets a reloading page re-establish itself.
//
// # Quick Start
//
// Create an App and run it with graceful shutdown on interrupt:
//
//	app, err := pomoflow.New()
//	if err != nil {
//	    slog.Error("failed to create app", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	app.Start(ctx) // blocks until the tab closes or ctx is cancelled
//
// # Configuration
//
// Pomoflow uses the functional options pattern:
//
//	app, err := pomoflow.New(
//	    pomoflow.WithPort(9000),
//	    pomoflow.WithHeartbeatTimeout(30 * time.Second),
//	    pomoflow.WithGracePeriod(3 * time.Second),
//	    pomoflow.WithOpenBrowser(false),
//	)
//
// # Architecture
//
// Pomoflow consists of several internal packages:
//
//   - internal/liveness: session state, watchdog loop, and terminator
//   - internal/server: localhost HTTP server and API handlers
//   - internal/settings: persisted timer settings with JSON export/import
//   - webui: embedded timer page assets
//
// The internal packages are not part of the public API and may change
// without notice. The binary is self-contained: the timer page is
// embedded via Go's embed directive.
package pomoflow
