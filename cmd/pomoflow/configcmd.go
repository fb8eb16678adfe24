package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SInsanali/pomoflow/config"
)

// configCmd groups the configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and modify the pomoflow configuration",
	Long: `Inspect and modify the per-user pomoflow configuration file.

The file lives in your user config directory and is optional: pomoflow
runs with built-in defaults when it is absent.`,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration: the per-user config file merged
over the built-in defaults. Values shown here are what a plain
"pomoflow" invocation would run with.`,
	RunE: runConfigShow,
}

// configSetPortCmd persists a preferred port to the config file.
var configSetPortCmd = &cobra.Command{
	Use:   "set-port <port>",
	Short: "Persist a preferred HTTP port",
	Long: `Persist a preferred HTTP port to the per-user config file, creating
the file if it does not exist. All other settings are left as they are.

Example:
  pomoflow config set-port 9000`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetPort,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetPortCmd)

	for _, cmd := range []*cobra.Command{configShowCmd, configSetPortCmd} {
		cmd.Flags().StringP("config", "c", "", "path to config file (default: per-user config)")
	}
}

// configPath resolves the config file path an invocation operates on.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	path := config.DefaultPath()
	if path == "" {
		return "", fmt.Errorf("cannot determine user config directory; pass --config")
	}
	return path, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}

	cfg := config.Default()
	source := "built-in defaults"
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		source = path
	}

	fmt.Printf("Configuration (%s):\n", source)
	fmt.Printf("  Port:              %d\n", cfg.Port)
	fmt.Printf("  Heartbeat timeout: %s\n", cfg.HeartbeatTimeout.Duration())
	fmt.Printf("  Grace period:      %s\n", cfg.GracePeriod.Duration())
	fmt.Printf("  Poll interval:     %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Open browser:      %t\n", cfg.Browse())
	if cfg.Theme != "" {
		fmt.Printf("  Theme:             %s\n", cfg.Theme)
	}
	if cfg.SettingsPath != "" {
		fmt.Printf("  Settings path:     %s\n", cfg.SettingsPath)
	}
	return nil
}

func runConfigSetPort(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[0], err)
	}

	path, err := configPath(cmd)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.Port = port
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Port set to %d (%s)\n", port, path)
	return nil
}
