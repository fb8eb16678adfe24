package pomoflow

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	port             int
	heartbeatTimeout time.Duration
	gracePeriod      time.Duration
	pollInterval     time.Duration
	openBrowser      bool
	theme            string
	settingsPath     string
	logger           *slog.Logger
	clk              clock.Clock
}

// Option is a function that configures an [App] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithHeartbeatTimeout], [WithGracePeriod],
// [WithPollInterval], [WithOpenBrowser], [WithTheme], [WithSettingsPath],
// [WithLogger], [WithClock].
type Option func(*appConfig) error

// WithPort sets the preferred HTTP port for the timer server.
//
// The timer UI will be available at http://localhost:<port>. If the port
// is busy at startup the server probes upward for a free one, so the
// bound port may differ. Defaults to 8888 if not specified.
//
// Example:
//
//	app, err := pomoflow.New(
//	    pomoflow.WithPort(9000),
//	)
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *appConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithHeartbeatTimeout sets how long the server tolerates heartbeat
// silence before concluding the timer tab is gone.
//
// Browsers aggressively throttle timers in background tabs, so this
// should be generous relative to the heartbeat interval the page is told
// to use. Defaults to 2 minutes if not specified.
//
// Returns an error if the duration is zero or negative.
func WithHeartbeatTimeout(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("heartbeat timeout must be positive")
		}
		cfg.heartbeatTimeout = d
		return nil
	}
}

// WithGracePeriod sets how long the server waits after a disconnect
// beacon for the page to come back.
//
// This is the window that keeps a reload or an internal navigation from
// killing the server: the departing page fires a disconnect, and the new
// page's first heartbeat lands well inside the grace period. Defaults to
// 3 seconds if not specified.
//
// Returns an error if the duration is zero or negative. [New] also
// rejects a grace period that is not shorter than the heartbeat timeout.
func WithGracePeriod(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("grace period must be positive")
		}
		cfg.gracePeriod = d
		return nil
	}
}

// WithPollInterval sets how often the watchdog checks session liveness.
//
// The poll interval bounds how late a termination can fire past its
// deadline. Defaults to 1 second if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithOpenBrowser controls whether [App.Start] opens the timer page in
// the default browser after the server binds. Defaults to true.
func WithOpenBrowser(open bool) Option {
	return func(cfg *appConfig) error {
		cfg.openBrowser = open
		return nil
	}
}

// WithTheme overrides the persisted color theme at startup.
//
// The override is written through to the settings store, so it survives
// restarts. An empty string leaves the stored theme untouched.
//
// Validation happens at startup against the known theme names; an
// unknown theme makes [App.Start] fail rather than New.
func WithTheme(theme string) Option {
	return func(cfg *appConfig) error {
		cfg.theme = theme
		return nil
	}
}

// WithSettingsPath sets where timer settings are persisted.
//
// If not specified, a per-user default under [os.UserConfigDir] is used.
//
// Returns an error if the path is empty.
func WithSettingsPath(path string) Option {
	return func(cfg *appConfig) error {
		if path == "" {
			return errors.New("settings path cannot be empty")
		}
		cfg.settingsPath = path
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the App.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	app, err := pomoflow.New(
//	    pomoflow.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock injects the clock used by the watchdog, terminator, and
// status timestamps. Tests pass a mock clock to drive liveness decisions
// deterministically. If not specified, the real wall clock is used.
//
// Returns an error if the clock is nil.
func WithClock(clk clock.Clock) Option {
	return func(cfg *appConfig) error {
		if clk == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clk = clk
		return nil
	}
}
