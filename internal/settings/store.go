package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is a file-backed settings store.
//
// Reads are served from memory; writes validate, persist atomically, and
// then update the in-memory copy, so a failed write never leaves the
// store disagreeing with the file. Store is safe for concurrent use by
// the HTTP handlers.
type Store struct {
	mu      sync.Mutex
	path    string
	current Settings
	logger  *slog.Logger
}

// Open creates a [Store] backed by the JSON file at path.
//
// A missing file is not an error: the store starts from [Default] and the
// file is created on the first save. A corrupt or invalid file is logged
// and replaced by defaults rather than failing startup; losing a theme
// preference is preferable to a server that will not start.
func Open(path string, logger *slog.Logger) *Store {
	st := &Store{
		path:    path,
		current: Default(),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read settings file, using defaults", "path", path, "error", err)
		}
		return st
	}

	// unmarshal over defaults so a partial file keeps default values for
	// the fields it omits
	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn("settings file is not valid JSON, using defaults", "path", path, "error", err)
		return st
	}
	if err := loaded.Validate(); err != nil {
		logger.Warn("settings file failed validation, using defaults", "path", path, "error", err)
		return st
	}

	st.current = loaded
	return st
}

// Get returns the current settings.
func (st *Store) Get() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// Put validates s, persists it, and makes it current.
func (st *Store) Put(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.write(s); err != nil {
		return err
	}
	st.current = s
	return nil
}

// Export returns the current settings as indented JSON, suitable for the
// download endpoint.
func (st *Store) Export() ([]byte, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.MarshalIndent(st.current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return data, nil
}

// Import parses a previously exported JSON document, validates it, and
// persists it as the current settings. Fields absent from the document
// keep their default values.
func (st *Store) Import(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings JSON: %w", err)
	}
	if err := st.Put(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// write persists s to the store's path via a temp file rename, so a crash
// mid-write cannot corrupt the existing file. Caller holds the mutex.
func (st *Store) write(s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
