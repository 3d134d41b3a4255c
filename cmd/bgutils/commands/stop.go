// cmd/bgutils/commands/stop.go
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/cmd/bgutils/internal/format"
	"github.com/spitoglou/background-utils/pkg/control"
)

func newStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the services of the running instance",
		Long: `Ask the running instance to stop all of its services.

The instance itself stays alive so the services can be started again with
'bgutils restart'. The stop is dispatched asynchronously; use 'bgutils status'
to watch the outcome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			addr := controlAddr(cmd)
			c := control.NewClient(addr)

			ctx, cancel := context.WithTimeout(cmd.Context(), controlCallTimeout)
			defer cancel()

			if err := c.Stop(ctx); err != nil {
				if errors.Is(err, control.ErrUnreachable) {
					return fmt.Errorf("no running instance reachable at %s (start one with '%s run')", addr, cliExecutable)
				}
				return err
			}

			return formatter.PrintSummary("Stop requested")
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}
