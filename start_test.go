package pomoflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestApp(t *testing.T, port int, opts ...Option) *App {
	t.Helper()
	base := []Option{
		WithPort(port),
		WithOpenBrowser(false),
		WithSettingsPath(filepath.Join(t.TempDir(), "settings.json")),
		WithLogger(testLogger()),
	}
	app, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	app := newTestApp(t, 19021)

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)
		done <- app.Start(ctx)
	}()

	<-started
	time.Sleep(50 * time.Millisecond)

	// verify Start is still blocking (channel should be empty)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns promptly if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	app := newTestApp(t, 19022)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- app.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

// TestStart_MultipleSequentialRuns verifies that a new App can be started
// after the previous one shuts down.
func TestStart_MultipleSequentialRuns(t *testing.T) {
	for i := 0; i < 3; i++ {
		app := newTestApp(t, 19023+i)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- app.Start(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("iteration %d: Start() returned error: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Start() did not return", i)
		}
	}
}

// TestStart_ThemeOverridePersisted verifies that a theme override is written
// through to the settings file.
func TestStart_ThemeOverridePersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	app, err := New(
		WithPort(19030),
		WithOpenBrowser(false),
		WithSettingsPath(path),
		WithLogger(testLogger()),
		WithTheme("forest"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var persisted struct {
		Theme string `json:"theme"`
	}
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if persisted.Theme != "forest" {
		t.Errorf("persisted theme = %q, want %q", persisted.Theme, "forest")
	}
}

// TestStart_UnknownThemeFails verifies that an unknown theme override fails
// startup instead of being silently dropped.
func TestStart_UnknownThemeFails(t *testing.T) {
	app := newTestApp(t, 19031, WithTheme("neon"))

	err := app.Start(context.Background())
	if err == nil {
		t.Fatal("Start() expected error for unknown theme, got nil")
	}
	if !strings.Contains(err.Error(), "theme") {
		t.Errorf("Start() error = %v, want error mentioning theme", err)
	}
}
