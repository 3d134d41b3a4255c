// cmd/bgutils/commands/status.go
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/cmd/bgutils/internal/format"
	"github.com/spitoglou/background-utils/pkg/appctx"
	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/control"
	"github.com/spitoglou/background-utils/pkg/service"
)

const controlCallTimeout = 5 * time.Second

var (
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func styleForPhase(phase service.Phase) lipgloss.Style {
	switch phase {
	case service.PhaseRunning:
		return runningStyle
	case service.PhaseShuttingDown, service.PhaseRestarting:
		return busyStyle
	default:
		return idleStyle
	}
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running services",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			addr := controlAddr(cmd)
			c := control.NewClient(addr)

			ctx, cancel := context.WithTimeout(cmd.Context(), controlCallTimeout)
			defer cancel()

			snap, err := c.Status(ctx)
			if err != nil {
				if errors.Is(err, control.ErrUnreachable) {
					return fmt.Errorf("no running instance reachable at %s (start one with '%s run')", addr, cliExecutable)
				}
				return err
			}

			if formatter.IsJSON() {
				return formatter.PrintJSON(snap)
			}

			header := styleForPhase(snap.Phase).Render(strings.ToUpper(string(snap.Phase)))
			header += subtleStyle.Render(fmt.Sprintf("  generation %d", snap.Generation))
			if snap.RunID != "" {
				header += subtleStyle.Render("  run " + snap.RunID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), header)

			if len(snap.Services) == 0 {
				return formatter.PrintSummary("No services registered")
			}

			rows := make([][]string, 0, len(snap.Services))
			for _, svc := range snap.Services {
				rows = append(rows, []string{svc.Name, stateLabel(svc), startedLabel(svc.StartedAt), svc.Err})
			}
			return formatter.PrintTable([]string{"Service", "State", "Started", "Error"}, rows)
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}

// controlAddr resolves the control endpoint address from the loaded
// configuration, falling back to the default when the context carries none.
func controlAddr(cmd *cobra.Command) string {
	if cfgMgr, ok := appctx.Config(cmd.Context()); ok {
		return cfgMgr.Get().Control.Addr
	}
	return config.DefaultConfig().Control.Addr
}

func stateLabel(svc service.ServiceStatus) string {
	label := string(svc.State)
	if svc.Forced {
		label += " (forced)"
	}
	return label
}

func startedLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
