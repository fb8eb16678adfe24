package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/SInsanali/pomoflow/internal/liveness"
	"github.com/SInsanali/pomoflow/internal/settings"
)

const (
	// shutdownTimeout bounds graceful HTTP shutdown once the run context
	// is cancelled.
	shutdownTimeout = 5 * time.Second

	// maxPortAttempts is how many successive ports are probed when the
	// preferred port is busy, before falling back to an OS-assigned one.
	maxPortAttempts = 100

	// maxSettingsBytes bounds the body of settings update and import requests.
	maxSettingsBytes = 64 << 10

	// intervalPlaceholder is the marker in the embedded HTML that gets
	// replaced with the heartbeat interval in milliseconds.
	intervalPlaceholder = "{{.HeartbeatIntervalMs}}"
)

// Server handles HTTP requests for the timer page and its API.
//
// Server exposes:
//   - GET  /: the embedded timer page
//   - GET|POST /api/heartbeat: records a liveness heartbeat
//   - POST /api/disconnect: records the page's unload beacon
//   - GET  /api/status: JSON snapshot of liveness state, for debugging
//   - GET|PUT /api/settings: read and update timer settings
//   - GET  /api/settings/export, POST /api/settings/import
//
// The server binds to localhost only; the liveness protocol trusts
// whatever can reach it, so it must not be exposed beyond the local host.
type Server struct {
	session  *liveness.Session
	settings *settings.Store
	assets   fs.FS
	port     int
	hbEvery  time.Duration
	clk      clock.Clock
	logger   *slog.Logger

	instanceID string
	httpServer *http.Server
	boundPort  int
}

// NewServer creates a new HTTP [Server].
//
// port is the preferred TCP port; the actual bound port may differ (see
// [Server.Start]) and is available from [Server.Port]. hbEvery is the
// heartbeat interval the served page is told to use. The clock supplies
// handler timestamps so tests can control them.
func NewServer(session *liveness.Session, st *settings.Store, assets fs.FS, port int, hbEvery time.Duration, clk clock.Clock, logger *slog.Logger) *Server {
	return &Server{
		session:    session,
		settings:   st,
		assets:     assets,
		port:       port,
		hbEvery:    hbEvery,
		clk:        clk,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns after the listener is bound. If the
// preferred port is busy, successive ports are probed; if none of those
// bind either, the OS assigns one. The server shuts down gracefully when
// the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("/api/disconnect", s.handleDisconnect)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/settings/export", s.handleExport)
	mux.HandleFunc("/api/settings/import", s.handleImport)
	mux.HandleFunc("/", s.handleIndex)

	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.boundPort = ln.Addr().(*net.TCPAddr).Port
	if s.boundPort != s.port {
		s.logger.Info("preferred port busy, using fallback", "preferred", s.port, "port", s.boundPort)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// BaseContext derives all request contexts from the run context,
		// so cancelling it also cancels in-flight handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Port returns the port the server actually bound. Valid after a
// successful [Server.Start].
func (s *Server) Port() int {
	return s.boundPort
}

// InstanceID returns the identifier of this server process, generated at
// construction and reported by the status endpoint.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// listen binds a localhost listener, probing successive ports from the
// preferred one and finally letting the OS choose.
func (s *Server) listen() (net.Listener, error) {
	for i := 0; i < maxPortAttempts; i++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.port+i))
		if err == nil {
			return ln, nil
		}
	}

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind any port starting from %d: %w", s.port, err)
	}
	return ln, nil
}

// handleHeartbeat records an "I am alive" signal from the page.
//
// Both GET and POST are accepted; the page uses a plain fetch. The
// request carries no payload, and the handler has no side effects beyond
// the session update, so repeated heartbeats are harmless.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.session.Heartbeat(s.clk.Now())

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, "ok")
}

// handleDisconnect records the page's best-effort unload beacon.
// sendBeacon always issues a POST.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.session.Disconnect(s.clk.Now())
	s.logger.Debug("disconnect beacon received")

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "noted")
}

// statusResponse is the JSON shape of the status endpoint.
type statusResponse struct {
	InstanceID       string     `json:"instance_id"`
	Verdict          string     `json:"verdict"`
	Armed            bool       `json:"armed"`
	LastHeartbeatAt  *time.Time `json:"last_heartbeat_at"`
	LastDisconnectAt *time.Time `json:"last_disconnect_at"`
	GraceDeadline    *time.Time `json:"grace_deadline"`
}

// handleStatus returns a snapshot of the liveness state as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := s.clk.Now()
	snap := s.session.Snapshot()
	resp := statusResponse{
		InstanceID:       s.instanceID,
		Verdict:          s.session.Verdict(now).String(),
		Armed:            snap.Armed,
		LastHeartbeatAt:  timeOrNil(snap.LastHeartbeatAt),
		LastDisconnectAt: timeOrNil(snap.LastDisconnectAt),
		GraceDeadline:    timeOrNil(snap.GraceDeadline),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// timeOrNil maps the zero time ("never") to a JSON null.
func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// handleSettings reads (GET) or replaces (PUT) the timer settings.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeSettings(w, s.settings.Get())

	case http.MethodPut:
		var in settings.Settings
		if err := json.NewDecoder(io.LimitReader(r.Body, maxSettingsBytes)).Decode(&in); err != nil {
			http.Error(w, "invalid settings JSON", http.StatusBadRequest)
			return
		}
		if err := s.settings.Put(in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Info("settings updated", "theme", in.Theme, "work_minutes", in.WorkMinutes)
		s.writeSettings(w, in)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleExport serves the current settings as a downloadable JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := s.settings.Export()
	if err != nil {
		http.Error(w, "failed to export settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="pomoflow-settings.json"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write settings export", "error", err)
	}
}

// handleImport validates and applies a previously exported settings file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBytes))
	if err != nil {
		http.Error(w, "could not read import body", http.StatusBadRequest)
		return
	}

	applied, err := s.settings.Import(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("settings imported", "theme", applied.Theme)
	s.writeSettings(w, applied)
}

func (s *Server) writeSettings(w http.ResponseWriter, in settings.Settings) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(in); err != nil {
		s.logger.Error("failed to encode settings response", "error", err)
	}
}

// handleIndex serves the timer page.
//
// The page gets no-cache headers so a browser reload always picks up the
// current heartbeat wiring rather than a cached copy with a stale interval.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Timer page not found", http.StatusInternalServerError)
		return
	}

	intervalMs := strconv.FormatInt(s.hbEvery.Milliseconds(), 10)
	rendered := strings.ReplaceAll(string(content), intervalPlaceholder, intervalMs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	if _, err := w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write timer page", "error", err)
	}
}
