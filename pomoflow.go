package pomoflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/SInsanali/pomoflow/config"
	"github.com/SInsanali/pomoflow/internal/liveness"
	"github.com/SInsanali/pomoflow/internal/server"
	"github.com/SInsanali/pomoflow/internal/settings"
	"github.com/SInsanali/pomoflow/webui"
)

const (
	defaultPort             = 8888
	defaultHeartbeatTimeout = 2 * time.Minute
	defaultGracePeriod      = 3 * time.Second
	defaultPollInterval     = time.Second

	// shutdownEscalation is how long the terminator waits for the
	// orderly path before forcing a hard exit.
	shutdownEscalation = 10 * time.Second

	// heartbeat interval bounds sent to the page; see heartbeatInterval.
	minHeartbeatInterval = time.Second
	maxHeartbeatInterval = 30 * time.Second
)

// App is the main orchestrator for the pomoflow server.
//
// App wires the liveness session, watchdog, HTTP server, and settings
// store together. It is created with [New] using functional options and
// run with [App.Start].
//
// The typical lifecycle is:
//
//	app, err := pomoflow.New(pomoflow.WithPort(9000))
//	if err != nil {
//	    slog.Error("failed to create app", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	app.Start(ctx) // blocks until the tab closes or ctx is cancelled
//
// Start returns nil in both exit paths: a closed tab is the expected end
// of life, not an error.
type App struct {
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

// New creates a new [App] with the given options.
//
// All options have defaults: port 8888, a 2 minute heartbeat timeout
// (background tabs are heavily throttled by browsers), a 3 second grace
// period for page reloads, and a 1 second watchdog poll interval.
//
// Returns an error if any option is invalid or the resulting timing
// windows are inconsistent (the grace period must be shorter than the
// heartbeat timeout, and the poll interval must not exceed it).
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		port:             defaultPort,
		heartbeatTimeout: defaultHeartbeatTimeout,
		gracePeriod:      defaultGracePeriod,
		pollInterval:     defaultPollInterval,
		openBrowser:      true,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}
	if cfg.gracePeriod >= cfg.heartbeatTimeout {
		return nil, fmt.Errorf("grace period (%s) must be shorter than heartbeat timeout (%s)",
			cfg.gracePeriod, cfg.heartbeatTimeout)
	}
	if cfg.pollInterval > cfg.heartbeatTimeout {
		return nil, fmt.Errorf("poll interval (%s) must not exceed heartbeat timeout (%s)",
			cfg.pollInterval, cfg.heartbeatTimeout)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clk
	if clk == nil {
		clk = clock.New()
	}

	settingsPath := cfg.settingsPath
	if settingsPath == "" {
		settingsPath = config.DefaultSettingsPath()
	}

	return &App{
		port:             cfg.port,
		heartbeatTimeout: cfg.heartbeatTimeout,
		gracePeriod:      cfg.gracePeriod,
		pollInterval:     cfg.pollInterval,
		openBrowser:      cfg.openBrowser,
		theme:            cfg.theme,
		settingsPath:     settingsPath,
		logger:           logger,
		clk:              clk,
	}, nil
}

// Start runs the server until the timer tab closes or ctx is cancelled.
//
// Start is a blocking call. During execution:
//
//   - Timer settings are loaded from disk (or defaults)
//   - The HTTP server binds (probing ports if the preferred one is busy)
//   - The watchdog begins polling liveness
//   - A browser tab is opened, unless disabled
//
// There are two ways out, and both return nil:
//
//   - The watchdog concludes the tab is gone: the terminator cancels the
//     run context and the server shuts down gracefully. The caller should
//     exit 0.
//   - ctx is cancelled (operator interrupt): shutdown proceeds directly,
//     bypassing the liveness decision logic.
//
// A non-nil error is returned only if startup itself fails.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := settings.Open(a.settingsPath, a.logger)
	if a.theme != "" {
		s := store.Get()
		s.Theme = a.theme
		if err := store.Put(s); err != nil {
			return fmt.Errorf("failed to apply theme override: %w", err)
		}
	}

	session := liveness.NewSession(a.heartbeatTimeout, a.gracePeriod)
	terminator := liveness.NewTerminator(a.clk, shutdownEscalation, cancel, nil, a.logger)
	watchdog := liveness.NewWatchdog(session, a.pollInterval, a.clk, terminator.Terminate, a.logger)

	srv := server.NewServer(session, store, webui.Assets,
		a.port, heartbeatInterval(a.heartbeatTimeout), a.clk, a.logger)
	if err := srv.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	watchdog.Start(runCtx)
	defer watchdog.Stop()

	url := fmt.Sprintf("http://localhost:%d", srv.Port())
	a.logger.Info("pomoflow running",
		"url", url,
		"heartbeat_timeout", a.heartbeatTimeout.String(),
		"grace_period", a.gracePeriod.String(),
	)
	a.logger.Info("close the timer tab to stop the server")

	if a.openBrowser {
		go openBrowser(url, a.logger)
	}

	<-runCtx.Done()
	a.logger.Info("pomoflow stopped")
	return nil
}

// Port returns the preferred HTTP port. The bound port may differ if the
// preferred one was busy at startup.
func (a *App) Port() int {
	return a.port
}

// HeartbeatTimeout returns the configured heartbeat timeout.
func (a *App) HeartbeatTimeout() time.Duration {
	return a.heartbeatTimeout
}

// GracePeriod returns the configured reload grace period.
func (a *App) GracePeriod() time.Duration {
	return a.gracePeriod
}

// PollInterval returns the configured watchdog poll interval.
func (a *App) PollInterval() time.Duration {
	return a.pollInterval
}

// heartbeatInterval derives the interval the page is told to heartbeat
// at: a third of the timeout, so a couple of dropped or throttled beats
// never look like a closed tab, clamped to sane bounds.
func heartbeatInterval(timeout time.Duration) time.Duration {
	interval := timeout / 3
	if interval < minHeartbeatInterval {
		interval = minHeartbeatInterval
	}
	if interval > maxHeartbeatInterval {
		interval = maxHeartbeatInterval
	}
	return interval
}
