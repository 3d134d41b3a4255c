// cmd/bgutils/commands/restart.go
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/cmd/bgutils/internal/format"
	"github.com/spitoglou/background-utils/pkg/control"
)

func newRestartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the services of the running instance",
		Long: `Ask the running instance to stop its services and start them again
under a fresh generation. The restart is dispatched asynchronously; use
'bgutils status' to watch the outcome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			addr := controlAddr(cmd)
			c := control.NewClient(addr)

			ctx, cancel := context.WithTimeout(cmd.Context(), controlCallTimeout)
			defer cancel()

			if err := c.Restart(ctx); err != nil {
				if errors.Is(err, control.ErrUnreachable) {
					return fmt.Errorf("no running instance reachable at %s (start one with '%s run')", addr, cliExecutable)
				}
				return err
			}

			return formatter.PrintSummary("Restart requested")
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}
