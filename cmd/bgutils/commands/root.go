// cmd/bgutils/commands/root.go
// Package commands implements the bgutils CLI command tree.
package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/pkg/appctx"
	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/logging"
	"github.com/spitoglou/background-utils/pkg/workspace"
)

const cliExecutable = "bgutils"

// NewCommand constructs the top-level bgutils CLI command, wiring global
// flags, configuration loading, and shared workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		workspaceDir   string
		verbosityCount int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "bgutils hosts a set of personal background services",
		Long: `bgutils runs small recurring jobs (battery warnings, mailbox checks,
network probes, workspace cleanup) as one supervised process, and provides
commands to inspect and control a running instance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr := config.NewManager()
			if err := cfgMgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := cfgMgr.Get()

			logging.Configure(logging.Options{
				Level:  effectiveLogLevel(cfg.Log.Level, verbosityCount),
				Format: cfg.Log.Format,
			})

			ctx := appctx.WithConfig(cmd.Context(), cfgMgr)

			prepared, err := workspace.Prepare(workspaceDir)
			if err != nil {
				return fmt.Errorf("prepare workspace: %w", err)
			}
			ctx = workspace.WithContext(ctx, prepared)
			log.Debug().Str("workspace", prepared).Msg("Workspace ready")

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "", "Override workspace root directory")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newStopCommand())
	cmd.AddCommand(newRestartCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newWifiCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// effectiveLogLevel resolves the configured level against the -v count,
// where each repetition steps the output one level more verbose.
func effectiveLogLevel(configured string, verbosity int) string {
	switch {
	case verbosity <= 0:
		return configured
	case verbosity == 1:
		return "debug"
	default:
		return "trace"
	}
}
