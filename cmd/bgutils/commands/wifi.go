// cmd/bgutils/commands/wifi.go
package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/spitoglou/background-utils/cmd/bgutils/internal/format"
	"github.com/spitoglou/background-utils/pkg/wifi"
)

const netshTimeout = 30 * time.Second

func newWifiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Inspect saved wifi profiles and visible networks (Windows only)",
	}

	cmd.AddCommand(newWifiShowPasswordsCommand())
	cmd.AddCommand(newWifiListNetworksCommand())

	return cmd
}

func newWifiShowPasswordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show-passwords",
		Short: "List saved wifi profiles with their stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			ctx, cancel := context.WithTimeout(cmd.Context(), netshTimeout)
			defer cancel()

			profiles, err := wifi.ProfilesWithKeys(ctx)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.PrintJSON(profiles)
			}

			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				key := p.Key
				if key == "" {
					key = "(open or unknown)"
				}
				rows = append(rows, []string{p.Name, key})
			}
			return formatter.PrintTable([]string{"Profile", "Key"}, rows)
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}

func newWifiListNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-networks",
		Short: "List wireless networks currently in range",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			ctx, cancel := context.WithTimeout(cmd.Context(), netshTimeout)
			defer cancel()

			networks, err := wifi.Networks(ctx)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.PrintJSON(networks)
			}

			rows := make([][]string, 0, len(networks))
			for _, n := range networks {
				rows = append(rows, []string{n.SSID, n.Authentication, n.Signal})
			}
			return formatter.PrintTable([]string{"SSID", "Authentication", "Signal"}, rows)
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}
