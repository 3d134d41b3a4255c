package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spitoglou/background-utils/pkg/config"
)

func writeFileAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestPruneRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := writeFileAged(t, dir, "old.log", 48*time.Hour)
	fresh := writeFileAged(t, dir, "new.log", time.Hour)

	removed := Prune([]string{dir}, 24*time.Hour, time.Now())

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestPruneLeavesSubdirectoriesAlone(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0o755))
	nested := writeFileAged(t, sub, "old.log", 48*time.Hour)
	stamp := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(sub, stamp, stamp))

	removed := Prune([]string{dir}, 24*time.Hour, time.Now())

	assert.Equal(t, 0, removed)
	assert.DirExists(t, sub)
	assert.FileExists(t, nested)
}

func TestPruneSkipsMissingRoot(t *testing.T) {
	dir := t.TempDir()
	stale := writeFileAged(t, dir, "old.log", 48*time.Hour)

	removed := Prune([]string{filepath.Join(dir, "nope"), dir}, 24*time.Hour, time.Now())

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(config.JanitorConfig{Schedule: "every day at noon", Retention: 24 * time.Hour})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "janitor schedule")
}

func TestJanitorStopsWhileWaitingForActivation(t *testing.T) {
	run, err := New(config.JanitorConfig{
		Schedule:  "0 3 * * *",
		Retention: 24 * time.Hour,
	}, t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	started := time.Now()
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(started), time.Second, "the schedule wait must be interruptible")
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
