// pkg/notify/notify.go
// Package notify delivers short user-facing messages about service events,
// either as desktop notifications or as log lines on headless hosts.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
)

// Backend names accepted in the notify configuration.
const (
	BackendDesktop = "desktop"
	BackendLog     = "log"
)

// Notifier delivers a titled message to the user. Implementations must be
// safe for concurrent use; services notify from their own goroutines.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop shows native desktop notifications.
type Desktop struct{}

func (Desktop) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// LogOnly writes notifications to the log instead of the desktop. It is the
// fallback for headless hosts and the explicit "log" backend.
type LogOnly struct {
	logger zerolog.Logger
}

func NewLogOnly() LogOnly {
	return LogOnly{logger: log.With().Str("component", "notify").Logger()}
}

func (n LogOnly) Notify(title, message string) error {
	n.logger.Info().Str("title", title).Msg(message)
	return nil
}

// FromConfig selects the notifier for the configured backend. Anything other
// than the desktop backend degrades to log-only.
func FromConfig(cfg config.NotifyConfig) Notifier {
	if cfg.Backend == BackendDesktop {
		return Desktop{}
	}
	return NewLogOnly()
}
