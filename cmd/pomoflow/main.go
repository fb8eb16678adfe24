// Package main is the entry point for the pomoflow CLI.
//
// Pomoflow can be embedded as a library (SDK) or run as a standalone
// binary. This CLI provides the standalone binary approach.
//
// Usage:
//
//	pomoflow                     # Start the timer (default command)
//	pomoflow serve --port 9000   # Start on a specific port
//	pomoflow config show         # Print the effective configuration
//	pomoflow config set-port 9000
//	pomoflow version             # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command. Running it without a subcommand starts
// the timer, so `pomoflow` alone does the right thing.
var rootCmd = &cobra.Command{
	Use:   "pomoflow",
	Short: "A local Pomodoro timer that lives and dies with its browser tab",
	Long: `Pomoflow serves a Pomodoro timer page on localhost and watches the
tab that opens it. The page heartbeats while open and fires a beacon
when it closes; once the tab is gone the server shuts itself down.
No daemons, no leftover processes.

Quick start:
  1. Run: pomoflow
  2. A browser tab opens with the timer
  3. Close the tab when you are done - the server exits on its own`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pomoflow binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pomoflow %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
