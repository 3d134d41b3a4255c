// pkg/services/janitor/janitor.go
// Package janitor prunes stale files from the workspace on a cron schedule.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/service"
)

// New returns the janitor service body, or an error when the cron schedule
// does not parse. roots are the directories to prune; only top-level regular
// files are considered, subdirectories are left alone.
func New(cfg config.JanitorConfig, roots ...string) (service.RunFunc, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse janitor schedule %q: %w", cfg.Schedule, err)
	}

	return func(ctx context.Context) error {
		logger := log.With().Str("component", "janitor").Logger()

		for {
			next := schedule.Next(time.Now())
			logger.Debug().Time("next_run", next).Msg("Janitor waiting for next activation")
			if !service.Sleep(ctx, time.Until(next)) {
				return ctx.Err()
			}

			removed := Prune(roots, cfg.Retention, time.Now())
			logger.Info().Int("removed", removed).Msg("Janitor pass complete")
		}
	}, nil
}

// Prune removes regular files directly under each root whose modification
// time is older than retention before now. Roots that do not exist are
// skipped. It returns the number of files removed.
func Prune(roots []string, retention time.Duration, now time.Time) int {
	logger := log.With().Str("component", "janitor").Logger()
	cutoff := now.Add(-retention)

	removed := 0
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("dir", root).Msg("Cannot read directory")
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(root, entry.Name())
			if err := os.Remove(path); err != nil {
				logger.Warn().Err(err).Str("file", path).Msg("Cannot remove stale file")
				continue
			}
			logger.Info().Str("file", path).Msg("Removed stale file")
			removed++
		}
	}
	return removed
}
