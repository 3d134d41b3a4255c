// cmd/bgutils/internal/format/cobra.go
package format

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// RegisterFlags adds the shared output flags to a command that renders
// through a Formatter.
func RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", string(ModeTable), "Output format: table, json")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress summary messages")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
}

// FromCommand builds a Formatter using cobra command output/error writers and
// the flags registered by RegisterFlags. Missing flags fall back to defaults,
// so it is safe on any command.
func FromCommand(cmd *cobra.Command) Formatter {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	outputMode := ModeTable
	if flag := cmd.Flags().Lookup("output"); flag != nil {
		outputMode = ParseMode(flag.Value.String())
	}

	quiet := false
	if flag := cmd.Flags().Lookup("quiet"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil {
			quiet = val
		}
	}

	color := true
	if flag := cmd.Flags().Lookup("no-color"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil && val {
			color = false
		}
	}

	// Cobra leaves these nil in some code paths; fall back to the process streams.
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return New(stdout, stderr, outputMode, quiet, color)
}
