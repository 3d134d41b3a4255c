// pkg/services/netwatch/netwatch.go
// Package netwatch probes a host with ICMP echo requests on an interval and
// logs reachability transitions.
package netwatch

import (
	"context"
	"time"

	"github.com/go-ping/ping"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/service"
)

// probeTimeout caps one probe regardless of the configured echo count.
const probeTimeout = 5 * time.Second

// pinger is the slice of *ping.Pinger the probe needs, kept small so tests
// can substitute their own.
type pinger interface {
	Run() error
	Stop()
	Statistics() *ping.Statistics
}

// newPinger builds an unprivileged UDP pinger for the configured host. Tests
// swap this out.
var newPinger = func(cfg config.NetwatchConfig) (pinger, error) {
	p, err := ping.NewPinger(cfg.Host)
	if err != nil {
		return nil, err
	}
	p.Count = cfg.Count
	p.Interval = 200 * time.Millisecond
	p.Timeout = probeTimeout
	p.SetPrivileged(false)
	return p, nil
}

// New returns the network watcher service body.
func New(cfg config.NetwatchConfig) service.RunFunc {
	return func(ctx context.Context) error {
		logger := log.With().
			Str("component", "netwatch").
			Str("host", cfg.Host).
			Logger()

		reachable := false
		first := true
		for {
			stats, err := probe(ctx, cfg)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				logger.Warn().Err(err).Msg("Probe failed")
			} else {
				up := stats.PacketsRecv > 0
				logTransition(logger, stats, up, reachable, first)
				reachable = up
				first = false
			}

			if !service.Sleep(ctx, cfg.Interval) {
				return ctx.Err()
			}
		}
	}
}

// probe runs one ping round. A goroutine watches the context so cancellation
// interrupts a probe in flight; Run then returns and the goroutine exits.
func probe(ctx context.Context, cfg config.NetwatchConfig) (*ping.Statistics, error) {
	p, err := newPinger(cfg)
	if err != nil {
		return nil, err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		<-watchCtx.Done()
		p.Stop()
	}()

	if err := p.Run(); err != nil {
		return nil, err
	}
	return p.Statistics(), nil
}

// logTransition reports reachability changes loudly and steady states softly.
func logTransition(logger zerolog.Logger, stats *ping.Statistics, up, wasUp, first bool) {
	event := logger.Debug()
	switch {
	case up && (first || !wasUp):
		event = logger.Info()
	case !up && (first || wasUp):
		event = logger.Warn()
	}
	event.
		Bool("reachable", up).
		Dur("avg_rtt", stats.AvgRtt).
		Float64("packet_loss", stats.PacketLoss).
		Msg("Reachability probe")
}
