package settings

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.json")
}

func TestOpen_MissingFileUsesDefaults(t *testing.T) {
	st := Open(testPath(t), testLogger())

	if got := st.Get(); got != Default() {
		t.Errorf("Get() = %+v, want defaults %+v", got, Default())
	}
}

func TestOpen_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := testPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := Open(path, testLogger())

	if got := st.Get(); got != Default() {
		t.Errorf("Get() after corrupt file = %+v, want defaults", got)
	}
}

func TestOpen_PartialFileMergesOverDefaults(t *testing.T) {
	path := testPath(t)
	if err := os.WriteFile(path, []byte(`{"work_minutes": 50, "theme": "ocean"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	st := Open(path, testLogger())
	got := st.Get()

	if got.WorkMinutes != 50 {
		t.Errorf("WorkMinutes = %d, want 50", got.WorkMinutes)
	}
	if got.Theme != "ocean" {
		t.Errorf("Theme = %q, want %q", got.Theme, "ocean")
	}
	if got.ShortBreakMinutes != Default().ShortBreakMinutes {
		t.Errorf("ShortBreakMinutes = %d, want default %d", got.ShortBreakMinutes, Default().ShortBreakMinutes)
	}
}

func TestStore_PutPersists(t *testing.T) {
	path := testPath(t)
	st := Open(path, testLogger())

	s := Default()
	s.WorkMinutes = 45
	s.Theme = "forest"

	if err := st.Put(s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// a fresh store over the same file must see the saved values
	reopened := Open(path, testLogger())
	if got := reopened.Get(); got != s {
		t.Errorf("reopened Get() = %+v, want %+v", got, s)
	}
}

func TestStore_PutRejectsInvalid(t *testing.T) {
	path := testPath(t)
	st := Open(path, testLogger())

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero work minutes", func(s *Settings) { s.WorkMinutes = 0 }},
		{"excessive work minutes", func(s *Settings) { s.WorkMinutes = 500 }},
		{"zero long break interval", func(s *Settings) { s.LongBreakInterval = 0 }},
		{"unknown theme", func(s *Settings) { s.Theme = "blinding-neon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := st.Put(s); err == nil {
				t.Error("Put() = nil, want validation error")
			}
		})
	}

	// rejected writes must not create or alter the file
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("settings file exists after rejected Put, want no file")
	}
	if got := st.Get(); got != Default() {
		t.Errorf("Get() after rejected Put = %+v, want defaults", got)
	}
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	st := Open(testPath(t), testLogger())

	s := Default()
	s.LongBreakMinutes = 20
	s.AutoStartBreaks = true
	if err := st.Put(s); err != nil {
		t.Fatal(err)
	}

	exported, err := st.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !json.Valid(exported) {
		t.Fatalf("Export() produced invalid JSON: %s", exported)
	}

	other := Open(testPath(t), testLogger())
	imported, err := other.Import(exported)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imported != s {
		t.Errorf("Import() = %+v, want %+v", imported, s)
	}
	if other.Get() != s {
		t.Errorf("Get() after import = %+v, want %+v", other.Get(), s)
	}
}

func TestStore_ImportRejectsGarbage(t *testing.T) {
	st := Open(testPath(t), testLogger())

	if _, err := st.Import([]byte("not even close")); err == nil {
		t.Error("Import(garbage) = nil, want error")
	}
	if _, err := st.Import([]byte(`{"work_minutes": -5}`)); err == nil {
		t.Error("Import(invalid values) = nil, want error")
	}

	if got := st.Get(); got != Default() {
		t.Errorf("Get() after failed imports = %+v, want defaults untouched", got)
	}
}
