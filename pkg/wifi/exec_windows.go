//go:build windows

package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func runNetsh(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "netsh", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("netsh %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
