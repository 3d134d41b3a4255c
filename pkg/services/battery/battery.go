// pkg/services/battery/battery.go
// Package battery watches the primary battery and raises a notification when
// it is discharging below the configured threshold.
package battery

import (
	"context"
	"fmt"

	"github.com/distatus/battery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/notify"
	"github.com/spitoglou/background-utils/pkg/service"
)

// getBatteries is swapped out by tests; readings come from the OS otherwise.
var getBatteries = battery.GetAll

type monitor struct {
	cfg      config.BatteryConfig
	notifier notify.Notifier
	logger   zerolog.Logger
	// warned latches the low-battery notification so it fires once per
	// discharge below the threshold, not once per poll.
	warned bool
}

// New returns the battery monitor service body.
func New(cfg config.BatteryConfig, notifier notify.Notifier) service.RunFunc {
	return func(ctx context.Context) error {
		m := &monitor{
			cfg:      cfg,
			notifier: notifier,
			logger:   log.With().Str("component", "battery").Logger(),
		}

		for {
			m.poll()
			if !service.Sleep(ctx, cfg.Interval) {
				return ctx.Err()
			}
		}
	}
}

// poll reads the first battery and updates the warning latch. Hosts without
// battery information just log and keep polling; the service never fails
// over a missing battery.
func (m *monitor) poll() {
	batteries, err := getBatteries()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Battery information unavailable")
		return
	}
	if len(batteries) == 0 {
		m.logger.Debug().Msg("No battery present")
		return
	}

	bat := batteries[0]
	percent := 0.0
	if bat.Full > 0 {
		percent = bat.Current / bat.Full * 100
	}
	discharging := bat.State.Raw == battery.Discharging

	m.logger.Info().
		Float64("percent", percent).
		Str("state", bat.State.String()).
		Msg("Battery level")

	low := discharging && percent < float64(m.cfg.WarnBelowPercent)
	switch {
	case low && !m.warned:
		m.warned = true
		m.logger.Warn().Float64("percent", percent).Msg("Battery low")
		message := fmt.Sprintf("Battery at %.0f%%, plug in soon", percent)
		if err := m.notifier.Notify("Battery low", message); err != nil {
			m.logger.Warn().Err(err).Msg("Notification failed")
		}
	case !low && m.warned:
		// Plugged in or recovered above the threshold; rearm the warning.
		m.warned = false
	}
}
