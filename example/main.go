package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SInsanali/pomoflow"
)

func main() {
	// tighter windows than the defaults so the demo reacts quickly when
	// the tab closes
	app, err := pomoflow.New(
		pomoflow.WithPort(8888),
		pomoflow.WithHeartbeatTimeout(30*time.Second),
		pomoflow.WithGracePeriod(3*time.Second),
		pomoflow.WithPollInterval(time.Second),
		pomoflow.WithTheme("ocean"),
	)
	if err != nil {
		slog.Error("failed to create app", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Pomoflow Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A timer tab opens at http://localhost:8888          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Close the tab and the server exits on its own.      ║")
	fmt.Println("  ║   Reloads survive: a short grace window covers the    ║")
	fmt.Println("  ║   gap between the old page and the new one.           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Ctrl+C also stops it                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		slog.Error("pomoflow error", "error", err)
		os.Exit(1)
	}
}
