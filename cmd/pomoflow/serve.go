package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SInsanali/pomoflow"
	"github.com/SInsanali/pomoflow/config"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the timer server. The root command aliases this, so
// the explicit form only matters when combining it with flags in
// scripts.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the timer server",
	Long: `Start the pomoflow timer server.

The server will:
  - Load configuration from the per-user config file, if one exists
  - Bind the timer UI on the configured port (probing upward if busy)
  - Open the timer page in your default browser
  - Shut itself down once the timer tab closes

The server also exits on interrupt (Ctrl+C) or SIGTERM.

Example:
  pomoflow serve
  pomoflow serve --port 9000 --no-browser
  pomoflow serve -c ~/pomoflow.yaml --heartbeat-timeout 30s`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringP("config", "c", "", "path to config file (default: per-user config)")
		cmd.Flags().Int("port", 0, "preferred HTTP port (overrides config)")
		cmd.Flags().Bool("no-browser", false, "do not open a browser tab")
		cmd.Flags().Duration("heartbeat-timeout", 0, "heartbeat silence tolerated before shutdown (overrides config)")
		cmd.Flags().Duration("grace-period", 0, "reload grace window after a disconnect (overrides config)")
		cmd.Flags().String("theme", "", "override the stored color theme")
	}
}

// loadConfig resolves the effective configuration: an explicit --config
// path must exist, the per-user default file is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}

	path = config.DefaultPath()
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// flag overrides on top of the file
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if d, _ := cmd.Flags().GetDuration("heartbeat-timeout"); d != 0 {
		cfg.HeartbeatTimeout = config.Duration(d)
	}
	if d, _ := cmd.Flags().GetDuration("grace-period"); d != 0 {
		cfg.GracePeriod = config.Duration(d)
	}
	if theme, _ := cmd.Flags().GetString("theme"); theme != "" {
		cfg.Theme = theme
	}
	openBrowser := cfg.Browse()
	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); noBrowser {
		openBrowser = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting pomoflow",
		"port", cfg.Port,
		"heartbeat_timeout", cfg.HeartbeatTimeout.Duration().String(),
		"grace_period", cfg.GracePeriod.Duration().String(),
	)

	opts := []pomoflow.Option{
		pomoflow.WithPort(cfg.Port),
		pomoflow.WithHeartbeatTimeout(cfg.HeartbeatTimeout.Duration()),
		pomoflow.WithGracePeriod(cfg.GracePeriod.Duration()),
		pomoflow.WithPollInterval(cfg.PollInterval.Duration()),
		pomoflow.WithOpenBrowser(openBrowser),
		pomoflow.WithLogger(logger),
	}
	if cfg.Theme != "" {
		opts = append(opts, pomoflow.WithTheme(cfg.Theme))
	}
	if cfg.SettingsPath != "" {
		opts = append(opts, pomoflow.WithSettingsPath(cfg.SettingsPath))
	}

	app, err := pomoflow.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	// cancel on SIGINT/SIGTERM; a closed tab ends Start on its own
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutdown complete", "uptime", time.Since(start).Round(time.Second).String())
	return nil
}
