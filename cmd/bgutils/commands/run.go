// cmd/bgutils/commands/run.go
package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/pkg/appctx"
	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/control"
	"github.com/spitoglou/background-utils/pkg/logging"
	"github.com/spitoglou/background-utils/pkg/notify"
	"github.com/spitoglou/background-utils/pkg/safe"
	"github.com/spitoglou/background-utils/pkg/service"
	"github.com/spitoglou/background-utils/pkg/services/battery"
	"github.com/spitoglou/background-utils/pkg/services/heartbeat"
	"github.com/spitoglou/background-utils/pkg/services/janitor"
	"github.com/spitoglou/background-utils/pkg/services/mailwatch"
	"github.com/spitoglou/background-utils/pkg/services/netwatch"
	"github.com/spitoglou/background-utils/pkg/version"
	"github.com/spitoglou/background-utils/pkg/workspace"
)

// newRunCommand creates the 'bgutils run' command: the long-lived process
// that hosts every enabled background service.
//
// The process runs until interrupted (SIGINT/SIGTERM) or asked to quit over
// the control endpoint, then stops all services within the configured grace
// period. A second interrupt abandons the grace period and exits at once.
//
// Only one instance may run per workspace; a file lock under <workspace>/run
// guards against a second copy racing the first for the control socket and
// the log file.
func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background services until interrupted",
		Long: `Run every enabled background service under one supervisor.

Services are assembled from the configuration (see 'bgutils config show'),
started together, and individually isolated: a failing service is recorded
and logged without disturbing its siblings. Editing the config file while
running restarts the services with the new settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				return fmt.Errorf("configuration unavailable in command context")
			}
			cfg := cfgMgr.Get()

			root, ok := workspace.FromContext(cmd.Context())
			if !ok {
				return fmt.Errorf("workspace unavailable in command context")
			}

			lock := flock.New(filepath.Join(workspace.RunDir(root), "bgutils.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another bgutils instance is already running in %s", root)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					log.Warn().Err(err).Msg("Failed to release instance lock")
				}
			}()

			logFile := ""
			if cfg.Log.FileEnabled {
				logFile = workspace.LogFile(root)
			}
			logging.Configure(logging.Options{
				Level:  zerolog.GlobalLevel().String(),
				Format: cfg.Log.Format,
				File:   logFile,
			})

			log.Info().
				Str("version", version.Get().Version).
				Str("workspace", root).
				Msg("Starting background services")

			reg, err := buildRegistry(cfgMgr, root)
			if err != nil {
				return err
			}
			if reg.Len() == 0 {
				log.Warn().Msg("No services enabled, nothing to supervise")
			}

			m := service.NewManager(reg, service.WithStopTimeout(cfg.Manager.ShutdownTimeout))
			m.Start()

			quit := make(chan struct{})

			var ctrl *control.Server
			if cfg.Control.Enabled {
				ctrl = control.NewServer(control.Options{
					Addr:        cfg.Control.Addr,
					Manager:     m,
					StopTimeout: cfg.Manager.ShutdownTimeout,
					LogFile:     logFile,
					OnQuit:      func() { close(quit) },
				})
				if err := ctrl.Start(); err != nil {
					m.Stop(cfg.Manager.ShutdownTimeout)
					return err
				}
			}

			if path := cfgMgr.ConfigFile(); path != "" {
				watcher, err := config.NewWatcher(path, func() {
					if err := cfgMgr.Load(nil, path); err != nil {
						log.Warn().Err(err).Msg("Config reload failed, keeping previous configuration")
						return
					}
					log.Info().Str("config", path).Msg("Configuration changed, restarting services")
					m.Restart(cfgMgr.Get().Manager.ShutdownTimeout)
				})
				if err != nil {
					log.Warn().Err(err).Msg("Config watcher unavailable")
				} else {
					watchCtx, stopWatch := context.WithCancel(context.Background())
					defer stopWatch()
					safe.Go(func() { _ = watcher.Start(watchCtx) })
				}
			}

			cause := service.AwaitShutdown(m, cfg.Manager.ShutdownTimeout, quit)
			if cause == service.CauseForced {
				log.Warn().Msg("Shutdown was forced before all services stopped")
			}

			if ctrl != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := ctrl.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("Control endpoint shutdown failed")
				}
			}

			log.Info().Msg("Background services stopped")
			return nil
		},
	}
}

// buildRegistry assembles the service set from the configuration toggles.
// Run functions read their settings from the config manager when the
// generation starts, so a reload-restart picks up edited values; enabling
// or disabling a service still requires a process restart.
func buildRegistry(cfgMgr *config.Manager, root string) (*service.Registry, error) {
	cfg := cfgMgr.Get()
	reg := service.NewRegistry()
	notifier := notify.FromConfig(cfg.Notify)

	if cfg.Services.Heartbeat.Enabled {
		err := reg.Add(service.Spec{Name: "heartbeat", Run: func(ctx context.Context) error {
			return heartbeat.New(cfgMgr.Get().Services.Heartbeat)(ctx)
		}})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Services.Battery.Enabled {
		err := reg.Add(service.Spec{Name: "battery", Run: func(ctx context.Context) error {
			return battery.New(cfgMgr.Get().Services.Battery, notifier)(ctx)
		}})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Services.Mail.Enabled {
		cacheDir := workspace.CacheDir(root)
		err := reg.Add(service.Spec{Name: "mailwatch", Run: func(ctx context.Context) error {
			return mailwatch.New(cfgMgr.Get().Services.Mail, notifier, cacheDir)(ctx)
		}})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Services.Netwatch.Enabled {
		err := reg.Add(service.Spec{Name: "netwatch", Run: func(ctx context.Context) error {
			return netwatch.New(cfgMgr.Get().Services.Netwatch)(ctx)
		}})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Services.Janitor.Enabled {
		// The schedule is validated on every config load, so constructing at
		// generation start cannot fail with a config that passed Load.
		roots := []string{workspace.LogsDir(root), workspace.CacheDir(root)}
		err := reg.Add(service.Spec{Name: "janitor", Run: func(ctx context.Context) error {
			run, err := janitor.New(cfgMgr.Get().Services.Janitor, roots...)
			if err != nil {
				return err
			}
			return run(ctx)
		}})
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
