// pkg/control/server.go
// Package control exposes the local HTTP surface for inspecting and driving
// a running service manager, and the client the CLI uses to reach it.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/safe"
	"github.com/spitoglou/background-utils/pkg/service"
)

// Options configures the control server.
type Options struct {
	// Addr is the TCP listen address, expected to stay on loopback.
	Addr string
	// Manager is the service manager driven by the endpoints.
	Manager *service.Manager
	// StopTimeout is handed to dispatched Stop and Restart calls.
	StopTimeout time.Duration
	// LogFile enables GET /api/v1/log when non-empty.
	LogFile string
	// OnQuit runs once when POST /api/v1/quit is received.
	OnQuit func()
}

// Server is the local control endpoint.
type Server struct {
	opts     Options
	logger   zerolog.Logger
	listener net.Listener
	httpSrv  *http.Server
	quitOnce sync.Once
}

// NewServer builds a control server; call Start to bind and serve.
func NewServer(opts Options) *Server {
	return &Server{
		opts:   opts,
		logger: log.With().Str("component", "control").Logger(),
	}
}

// Start binds the listen address and serves in the background. Binding
// happens synchronously so an occupied port fails startup instead of
// surfacing later as a dead endpoint.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("control listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	safe.Go(func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Control server failed")
		}
	})

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Control endpoint listening")
	return nil
}

// Addr returns the bound address, which differs from Options.Addr when the
// configuration asked for port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the route table, split out from Start for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/log", s.handleLogTail)
		r.Post("/services/stop", s.handleStop)
		r.Post("/services/restart", s.handleRestart)
		r.Post("/quit", s.handleQuit)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.opts.Manager.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	// A stop can take the full grace period, so it is dispatched and the
	// request answered immediately; callers poll /status for the outcome.
	safe.Go(func() { s.opts.Manager.Stop(s.opts.StopTimeout) })
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	safe.Go(func() { s.opts.Manager.Restart(s.opts.StopTimeout) })
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "quitting"})
	if s.opts.OnQuit != nil {
		s.quitOnce.Do(s.opts.OnQuit)
	}
}

func (s *Server) handleLogTail(w http.ResponseWriter, r *http.Request) {
	if s.opts.LogFile == "" {
		http.Error(w, "log file not enabled", http.StatusNotFound)
		return
	}

	lines, err := ParseLogQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tail, err := tailFile(s.opts.LogFile, lines)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "log file not found", http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Msg("Cannot read log file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(tail))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// tailFile returns the last n lines of path. Rotation caps the file size, so
// reading it whole is fine.
func tailFile(path string, n int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n", nil
}
