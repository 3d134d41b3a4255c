// pkg/service/signal.go
package service

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ShutdownCause reports why AwaitShutdown returned.
type ShutdownCause string

const (
	// CauseSignal means an interrupt arrived and the stop completed in time.
	CauseSignal ShutdownCause = "signal"
	// CauseQuit means the quit channel was closed and the stop completed in
	// time.
	CauseQuit ShutdownCause = "quit"
	// CauseForced means the stop did not complete cleanly: either a service
	// was abandoned at the deadline or a second interrupt cut the wait short.
	CauseForced ShutdownCause = "forced"
)

// AwaitShutdown blocks until SIGINT/SIGTERM arrives or quit is closed, then
// stops the manager within timeout. A second signal during the graceful stop
// abandons the wait immediately. Pass a nil quit channel when there is no
// programmatic shutdown path.
func AwaitShutdown(m *Manager, timeout time.Duration, quit <-chan struct{}) ShutdownCause {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	cause := CauseSignal
	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case <-quit:
		log.Info().Msg("Shutdown requested")
		cause = CauseQuit
	}

	stopped := make(chan struct{})
	go func() {
		m.Stop(timeout)
		close(stopped)
	}()

	select {
	case <-stopped:
		for _, svc := range m.Status().Services {
			if svc.Forced {
				return CauseForced
			}
		}
		return cause
	case sig := <-signals:
		log.Warn().
			Str("signal", sig.String()).
			Msg("Second signal received, aborting graceful shutdown")
		return CauseForced
	}
}
