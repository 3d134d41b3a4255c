// pkg/service/manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultStopTimeout bounds a graceful stop when the caller does not provide
// a timeout of its own.
const DefaultStopTimeout = 10 * time.Second

// handle tracks one service goroutine for the current generation. All fields
// except done are guarded by the manager mutex; done is closed exactly once
// by the supervising goroutine when the service body returns.
type handle struct {
	name      string
	state     State
	forced    bool
	err       error
	startedAt time.Time
	done      chan struct{}
	finalized bool
}

// Manager owns a set of background services and moves them through start,
// stop and restart as a group. Each start opens a new generation with a fresh
// cancellable context; stop cancels that context and joins the services
// against a single shared deadline. Invalid transitions are logged no-ops, so
// callers never need to sequence control calls carefully.
type Manager struct {
	mu      sync.Mutex
	specs   []Spec
	phase   Phase
	gen     uint64
	runID   string
	cancel  context.CancelFunc
	handles []*handle
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStopTimeout overrides DefaultStopTimeout for Stop and Restart calls
// that pass a non-positive timeout. Non-positive values are ignored.
func WithStopTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager builds an idle manager over the registry's current contents.
// The Spec list is copied, so the registry can be discarded afterwards.
func NewManager(reg *Registry, opts ...Option) *Manager {
	m := &Manager{
		specs:   reg.Specs(),
		phase:   PhaseIdle,
		timeout: DefaultStopTimeout,
		logger:  log.With().Str("component", "service.manager").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches every registered service under a fresh run context. Calling
// Start in any phase other than idle logs a warning and does nothing.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseIdle {
		m.logger.Warn().
			Str("phase", string(m.phase)).
			Msg("Start ignored: manager is not idle")
		return
	}
	m.launchLocked()
}

// launchLocked opens a new generation and spawns one goroutine per spec in
// registration order. Caller must hold m.mu.
func (m *Manager) launchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	m.runID = uuid.NewString()
	m.handles = make([]*handle, 0, len(m.specs))

	for _, spec := range m.specs {
		h := &handle{
			name:  spec.Name,
			state: StateStarting,
			done:  make(chan struct{}),
		}
		m.handles = append(m.handles, h)
		go m.supervise(ctx, spec, h, m.gen)
	}

	m.phase = PhaseRunning
	m.logger.Info().
		Uint64("generation", m.gen).
		Str("run_id", m.runID).
		Int("services", len(m.handles)).
		Msg("Service manager started")
}

// Stop cancels the current generation and waits up to timeout for services to
// exit. Services still running at the deadline are recorded as forced stops
// and abandoned to the cancelled context. A non-positive timeout selects the
// manager default. Calling Stop in any phase other than running logs a
// warning and does nothing.
func (m *Manager) Stop(timeout time.Duration) {
	if timeout <= 0 {
		timeout = m.timeout
	}

	m.mu.Lock()
	if m.phase != PhaseRunning {
		m.logger.Warn().
			Str("phase", string(m.phase)).
			Msg("Stop ignored: manager is not running")
		m.mu.Unlock()
		return
	}
	m.phase = PhaseShuttingDown
	m.mu.Unlock()

	m.drain(timeout)

	m.mu.Lock()
	m.phase = PhaseIdle
	forced := 0
	for _, h := range m.handles {
		if h.forced {
			forced++
		}
	}
	m.mu.Unlock()

	if forced > 0 {
		m.logger.Warn().
			Int("forced", forced).
			Msg("Service manager stopped with abandoned services")
		return
	}
	m.logger.Info().Msg("Service manager stopped")
}

// Restart replaces the current generation with a fresh one. From running it
// drains the old generation first; from idle it is equivalent to Start. While
// a shutdown or another restart is in flight it logs a warning and does
// nothing.
func (m *Manager) Restart(timeout time.Duration) {
	if timeout <= 0 {
		timeout = m.timeout
	}

	m.mu.Lock()
	switch m.phase {
	case PhaseIdle:
		m.launchLocked()
		m.mu.Unlock()
		return
	case PhaseRunning:
		m.phase = PhaseRestarting
		m.mu.Unlock()
	default:
		phase := m.phase
		m.mu.Unlock()
		m.logger.Warn().
			Str("phase", string(phase)).
			Msg("Restart ignored: shutdown already in progress")
		return
	}

	m.logger.Info().Msg("Restarting services")
	m.drain(timeout)

	m.mu.Lock()
	m.launchLocked()
	m.mu.Unlock()
}

// Status returns a snapshot of the manager and every service in the current
// generation. It only takes the state lock, never waiting on a service, so it
// is safe to call from handlers and signal paths at any time.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Phase:      m.phase,
		Generation: m.gen,
		RunID:      m.runID,
		Services:   make([]ServiceStatus, 0, len(m.handles)),
	}
	for _, h := range m.handles {
		status := ServiceStatus{
			Name:      h.name,
			State:     h.state,
			Forced:    h.forced,
			StartedAt: h.startedAt,
		}
		if h.err != nil {
			status.Err = h.err.Error()
		}
		snap.Services = append(snap.Services, status)
	}
	return snap
}

// drain cancels the run context and joins every handle of the current
// generation against one shared deadline. Handles that miss the deadline are
// finalized as forced stops.
func (m *Manager) drain(timeout time.Duration) {
	m.mu.Lock()
	cancel := m.cancel
	handles := make([]*handle, len(m.handles))
	copy(handles, m.handles)
	for _, h := range handles {
		if !h.finalized {
			h.state = StateStopping
		}
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for _, h := range handles {
		select {
		case <-h.done:
		case <-deadline.C:
			m.forceRemaining(handles)
			return
		}
	}
}

// forceRemaining finalizes every handle that has not exited yet. The service
// goroutines behind them keep whatever the cancelled context lets them do;
// their eventual return is logged but no longer changes the record.
func (m *Manager) forceRemaining(handles []*handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range handles {
		select {
		case <-h.done:
		default:
			if !h.finalized {
				h.finalized = true
				h.state = StateStopped
				h.forced = true
				m.logger.Warn().
					Str("service", h.name).
					Msg("Service did not stop before deadline, abandoning")
			}
		}
	}
}

// supervise runs one service to completion and records the outcome on its
// handle. It is the only writer of h.done.
func (m *Manager) supervise(ctx context.Context, spec Spec, h *handle, gen uint64) {
	defer close(h.done)

	m.mu.Lock()
	if h.state == StateStarting {
		h.state = StateRunning
		h.startedAt = time.Now()
	}
	m.mu.Unlock()

	logger := m.logger.With().
		Str("service", spec.Name).
		Uint64("generation", gen).
		Logger()
	logger.Info().Msg("Service started")

	err := m.runService(ctx, spec, logger)

	m.mu.Lock()
	defer m.mu.Unlock()

	if h.finalized {
		// Already abandoned at the shutdown deadline; keep the forced record.
		logger.Warn().Msg("Service exited after shutdown deadline")
		return
	}
	h.finalized = true

	switch {
	case err == nil || errors.Is(err, context.Canceled):
		h.state = StateStopped
		logger.Info().Msg("Service stopped")
	default:
		h.state = StateFailed
		h.err = err
		logger.Error().Err(err).Msg("Service failed")
	}
}

// runService invokes the service body, converting panics into errors so one
// faulty service cannot take down the process or its siblings.
func (m *Manager) runService(ctx context.Context, spec Spec, logger zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Service panicked")
			err = fmt.Errorf("%w: %v", ErrServicePanic, r)
		}
	}()
	return spec.Run(ctx)
}
