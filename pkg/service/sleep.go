// pkg/service/sleep.go
package service

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is cancelled, whichever comes first. It
// returns true after a full wait and false when interrupted, so service loops
// can exit promptly on shutdown:
//
//	for service.Sleep(ctx, interval) {
//	    // periodic work
//	}
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
