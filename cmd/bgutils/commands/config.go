// cmd/bgutils/commands/config.go
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spitoglou/background-utils/cmd/bgutils/internal/format"
	"github.com/spitoglou/background-utils/pkg/appctx"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
environment variables and flags, in the order they override each other.
Credentials are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				return fmt.Errorf("configuration unavailable in command context")
			}

			raw := redactSecrets(cfgMgr.Raw())
			if formatter.IsJSON() {
				return formatter.PrintJSON(raw)
			}

			out, err := yaml.Marshal(raw)
			if err != nil {
				return fmt.Errorf("render configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	format.RegisterFlags(cmd)
	return cmd
}

// redactSecrets masks credential values so the output is safe to paste into
// a bug report.
func redactSecrets(raw map[string]interface{}) map[string]interface{} {
	services, ok := raw["services"].(map[string]interface{})
	if !ok {
		return raw
	}
	mail, ok := services["mail"].(map[string]interface{})
	if !ok {
		return raw
	}
	if pw, ok := mail["password"].(string); ok && pw != "" {
		mail["password"] = "********"
	}
	return raw
}
