//go:build !windows

package wifi

import "context"

func runNetsh(ctx context.Context, args ...string) (string, error) {
	return "", ErrUnsupported
}
