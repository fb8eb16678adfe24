// Package config provides YAML configuration parsing for pomoflow.
//
// The config file is optional: pomoflow runs with sensible defaults when
// none exists. A file is useful for pinning a port or tuning the liveness
// windows.
//
// Example configuration:
//
//	port: 8888
//	heartbeat_timeout: 2m
//	grace_period: 3s
//	poll_interval: 1s
//	open_browser: true
//	theme: ocean
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Parse for fields the file omits. The heartbeat
// timeout is generous because browsers heavily throttle timers in
// background tabs; a tab that is merely hidden must not trip the watchdog.
const (
	DefaultPort             = 8888
	DefaultHeartbeatTimeout = 2 * time.Minute
	DefaultGracePeriod      = 3 * time.Second
	DefaultPollInterval     = time.Second
)

// Config is the root configuration structure for pomoflow.
//
// It maps directly to the YAML configuration file structure. Use [Load]
// or [Parse] to create a Config, or [Default] for the built-in values.
type Config struct {
	// Port is the preferred HTTP port. If busy, successive ports are
	// probed at startup. Defaults to 8888.
	Port int `yaml:"port"`

	// HeartbeatTimeout is how long the server tolerates heartbeat
	// silence before concluding the tab is gone. Defaults to 2m.
	HeartbeatTimeout Duration `yaml:"heartbeat_timeout"`

	// GracePeriod is how long after a disconnect beacon the server waits
	// for a reloading page to re-establish itself. Defaults to 3s.
	GracePeriod Duration `yaml:"grace_period"`

	// PollInterval is how often the watchdog re-evaluates liveness.
	// Defaults to 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// OpenBrowser controls whether a browser window is opened at startup.
	// Defaults to true.
	OpenBrowser *bool `yaml:"open_browser,omitempty"`

	// Theme overrides the stored theme at startup. Empty means keep the
	// saved one.
	Theme string `yaml:"theme,omitempty"`

	// SettingsPath overrides where timer settings are persisted. Empty
	// means the per-user config directory.
	SettingsPath string `yaml:"settings_path,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler so saved configs round-trip
// through the same duration syntax they are written in.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:             DefaultPort,
		HeartbeatTimeout: Duration(DefaultHeartbeatTimeout),
		GracePeriod:      Duration(DefaultGracePeriod),
		PollInterval:     Duration(DefaultPollInterval),
	}
}

// Browse reports whether a browser window should be opened at startup.
func (c *Config) Browse() bool {
	return c.OpenBrowser == nil || *c.OpenBrowser
}

// DefaultPath returns the per-user location of the config file, or an
// empty string if the user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pomoflow", "config.yaml")
}

// DefaultSettingsPath returns the per-user location of the timer
// settings file.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pomoflow-settings.json"
	}
	return filepath.Join(dir, "pomoflow", "settings.json")
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed; a caller that
// treats the file as optional should check for existence first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults for omitted
// fields, and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.HeartbeatTimeout == 0 {
		cfg.HeartbeatTimeout = Duration(DefaultHeartbeatTimeout)
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = Duration(DefaultGracePeriod)
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(DefaultPollInterval)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.HeartbeatTimeout.Duration() <= 0 {
		return fmt.Errorf("heartbeat_timeout must be positive, got %s", c.HeartbeatTimeout.Duration())
	}
	if c.GracePeriod.Duration() <= 0 {
		return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod.Duration())
	}
	if c.GracePeriod.Duration() >= c.HeartbeatTimeout.Duration() {
		return fmt.Errorf("grace_period (%s) must be shorter than heartbeat_timeout (%s)",
			c.GracePeriod.Duration(), c.HeartbeatTimeout.Duration())
	}
	if c.PollInterval.Duration() <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval.Duration())
	}
	if c.PollInterval.Duration() > c.HeartbeatTimeout.Duration() {
		return fmt.Errorf("poll_interval (%s) must not exceed heartbeat_timeout (%s)",
			c.PollInterval.Duration(), c.HeartbeatTimeout.Duration())
	}
	return nil
}

// Save writes the configuration to path as YAML, creating parent
// directories as needed. Used by the `config set-port` command.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
