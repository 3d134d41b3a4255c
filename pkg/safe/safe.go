// pkg/safe/safe.go
// Package safe provides panic-safe goroutine helpers.
package safe

import (
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Go runs fn on a new goroutine, recovering and logging any panic so a
// crashing task cannot take down the process.
func Go(fn func()) {
	GoWithRecover(fn, defaultRecover)
}

// GoWithRecover runs fn on a new goroutine with a custom recovery handler.
func GoWithRecover(fn func(), recoverFn func(r any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				recoverFn(r)
			}
		}()
		fn()
	}()
}

func defaultRecover(r any) {
	log.Error().
		Interface("panic", r).
		Str("stack", string(debug.Stack())).
		Msg("Recovered panic in background goroutine")
}
