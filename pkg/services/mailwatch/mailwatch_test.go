package mailwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spitoglou/background-utils/pkg/config"
)

type noopNotifier struct{}

func (noopNotifier) Notify(title, message string) error { return nil }

func newTestWatcher(t *testing.T) *watcher {
	t.Helper()
	return &watcher{
		cfg: config.MailConfig{
			Username: "user@example.com",
			Mailbox:  "INBOX",
		},
		notifier: noopNotifier{},
		cacheDir: t.TempDir(),
		logger:   zerolog.Nop(),
	}
}

func TestUIDMarkerRoundTrip(t *testing.T) {
	w := newTestWatcher(t)

	w.lastUID = 42
	require.NoError(t, w.saveLastUID())

	w2 := newTestWatcher(t)
	w2.cacheDir = w.cacheDir
	assert.Equal(t, uint32(42), w2.loadLastUID())
}

func TestLoadLastUIDMissingMarker(t *testing.T) {
	w := newTestWatcher(t)
	assert.Equal(t, uint32(0), w.loadLastUID())
}

func TestLoadLastUIDCorruptMarker(t *testing.T) {
	w := newTestWatcher(t)
	require.NoError(t, os.WriteFile(w.markerPath(), []byte("not a number\n"), 0o644))

	assert.Equal(t, uint32(0), w.loadLastUID())
}

func TestMarkerPathPerAccount(t *testing.T) {
	w := newTestWatcher(t)

	other := newTestWatcher(t)
	other.cacheDir = w.cacheDir
	other.cfg.Username = "someone.else@example.com"

	assert.NotEqual(t, w.markerPath(), other.markerPath())
	assert.Equal(t, w.cacheDir, filepath.Dir(w.markerPath()))
	assert.NotContains(t, filepath.Base(w.markerPath()), "@")
}

func TestFormatSender(t *testing.T) {
	tests := []struct {
		name string
		env  *imap.Envelope
		want string
	}{
		{
			name: "personal name preferred",
			env: &imap.Envelope{From: []*imap.Address{{
				PersonalName: "Ana Example",
				MailboxName:  "ana",
				HostName:     "example.com",
			}}},
			want: "Ana Example",
		},
		{
			name: "falls back to address",
			env: &imap.Envelope{From: []*imap.Address{{
				MailboxName: "ana",
				HostName:    "example.com",
			}}},
			want: "ana@example.com",
		},
		{
			name: "empty from list",
			env:  &imap.Envelope{},
			want: "unknown sender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSender(tt.env))
		})
	}
}

func TestMissingCredentialsCompletesWithoutError(t *testing.T) {
	run := New(config.MailConfig{
		Server:   "imap.example.com:993",
		Mailbox:  "INBOX",
		Interval: time.Minute,
	}, noopNotifier{}, t.TempDir())

	done := make(chan error, 1)
	go func() {
		done <- run(context.Background())
	}()

	select {
	case err := <-done:
		assert.NoError(t, err, "missing credentials end the worker cleanly")
	case <-time.After(time.Second):
		t.Fatal("worker did not return despite missing credentials")
	}
}
