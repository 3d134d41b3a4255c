// pkg/services/heartbeat/heartbeat.go
// Package heartbeat emits a periodic liveness tick to the log. It doubles as
// the reference implementation for a well-behaved service body: do one unit
// of work, then wait interruptibly.
package heartbeat

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/service"
)

// New returns the heartbeat service body. The first tick is logged
// immediately, then one per interval until the run context is cancelled.
func New(cfg config.HeartbeatConfig) service.RunFunc {
	return func(ctx context.Context) error {
		logger := log.With().Str("component", "heartbeat").Logger()

		ticks := 0
		for {
			ticks++
			logger.Info().Int("tick", ticks).Msg("Heartbeat")

			if !service.Sleep(ctx, cfg.Interval) {
				logger.Debug().Int("ticks", ticks).Msg("Heartbeat stopping")
				return ctx.Err()
			}
		}
	}
}
