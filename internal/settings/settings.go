// Package settings stores the user's timer preferences and theme.
//
// Settings persist as a small JSON file so they survive the server's
// ephemeral lifecycle (the process exits whenever the timer tab closes).
// The package also backs the JSON export/import feature of the web UI.
package settings

import (
	"fmt"
)

// Known theme names offered by the web UI. Imported settings naming an
// unknown theme are rejected rather than silently restyled.
var themes = map[string]bool{
	"dark":   true,
	"light":  true,
	"forest": true,
	"ocean":  true,
}

// Settings holds the user-adjustable timer preferences.
//
// All durations are whole minutes, matching what the timer UI exposes.
// The zero value is not valid; use [Default] as the starting point.
type Settings struct {
	// WorkMinutes is the length of a focus session.
	WorkMinutes int `json:"work_minutes"`

	// ShortBreakMinutes is the length of a short break.
	ShortBreakMinutes int `json:"short_break_minutes"`

	// LongBreakMinutes is the length of a long break.
	LongBreakMinutes int `json:"long_break_minutes"`

	// LongBreakInterval is how many focus sessions complete before a
	// long break replaces a short one.
	LongBreakInterval int `json:"long_break_interval"`

	// Theme is the UI color theme name.
	Theme string `json:"theme"`

	// AutoStartBreaks starts breaks automatically when a focus session ends.
	AutoStartBreaks bool `json:"auto_start_breaks"`
}

// Default returns the settings used when no file exists or the stored
// file is unreadable.
func Default() Settings {
	return Settings{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		LongBreakInterval: 4,
		Theme:             "dark",
	}
}

// Validate checks that all fields are within the ranges the timer UI can
// represent.
func (s Settings) Validate() error {
	if s.WorkMinutes < 1 || s.WorkMinutes > 180 {
		return fmt.Errorf("work_minutes must be between 1 and 180, got %d", s.WorkMinutes)
	}
	if s.ShortBreakMinutes < 1 || s.ShortBreakMinutes > 60 {
		return fmt.Errorf("short_break_minutes must be between 1 and 60, got %d", s.ShortBreakMinutes)
	}
	if s.LongBreakMinutes < 1 || s.LongBreakMinutes > 120 {
		return fmt.Errorf("long_break_minutes must be between 1 and 120, got %d", s.LongBreakMinutes)
	}
	if s.LongBreakInterval < 1 || s.LongBreakInterval > 12 {
		return fmt.Errorf("long_break_interval must be between 1 and 12, got %d", s.LongBreakInterval)
	}
	if !themes[s.Theme] {
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	return nil
}
