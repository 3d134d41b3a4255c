// pkg/services/mailwatch/mailwatch.go
// Package mailwatch polls an IMAP mailbox over TLS and raises a desktop
// notification for every message that arrived since the last poll. The last
// seen UID is persisted in the workspace cache dir, so restarts do not replay
// the backlog.
package mailwatch

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spitoglou/background-utils/pkg/config"
	"github.com/spitoglou/background-utils/pkg/notify"
	"github.com/spitoglou/background-utils/pkg/service"
)

// imapTimeout bounds every IMAP command, and the dial, so a wedged server
// cannot hold the worker past the shutdown deadline.
const imapTimeout = 30 * time.Second

type watcher struct {
	cfg      config.MailConfig
	notifier notify.Notifier
	cacheDir string
	logger   zerolog.Logger
	// lastUID is the highest UID already reported. Zero means no marker yet;
	// the first poll then records the mailbox frontier without notifying.
	lastUID uint32
}

// New returns the mailbox watcher service body. cacheDir is where the UID
// marker file lives, one per account and mailbox.
func New(cfg config.MailConfig, notifier notify.Notifier, cacheDir string) service.RunFunc {
	return func(ctx context.Context) error {
		logger := log.With().Str("component", "mailwatch").Logger()

		if cfg.Username == "" || cfg.Password == "" {
			logger.Error().Msg("Mail watcher not starting: username or password missing from configuration")
			return nil
		}

		w := &watcher{
			cfg:      cfg,
			notifier: notifier,
			cacheDir: cacheDir,
			logger:   logger,
		}
		w.lastUID = w.loadLastUID()

		for {
			if err := w.poll(); err != nil {
				// Connection trouble is routine for a laptop worker; log it
				// and reconnect on the next cycle.
				logger.Warn().Err(err).Msg("Mail poll failed")
			}
			if !service.Sleep(ctx, cfg.Interval) {
				return ctx.Err()
			}
		}
	}
}

// poll dials the server, reports messages above the last seen UID and
// advances the marker. Each poll uses a fresh connection.
func (w *watcher) poll() error {
	dialer := &net.Dialer{Timeout: imapTimeout}
	c, err := client.DialWithDialerTLS(dialer, w.cfg.Server, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.cfg.Server, err)
	}
	defer func() {
		if err := c.Logout(); err != nil {
			w.logger.Debug().Err(err).Msg("IMAP logout failed")
		}
	}()
	c.Timeout = imapTimeout

	if err := c.Login(w.cfg.Username, w.cfg.Password); err != nil {
		return fmt.Errorf("login as %s: %w", w.cfg.Username, err)
	}

	mbox, err := c.Select(w.cfg.Mailbox, true)
	if err != nil {
		return fmt.Errorf("select %s: %w", w.cfg.Mailbox, err)
	}

	if w.lastUID == 0 {
		// First run on this account: start at the current frontier instead
		// of notifying for the whole mailbox history.
		if mbox.UidNext > 0 {
			w.lastUID = mbox.UidNext - 1
		}
		w.logger.Info().Uint32("last_uid", w.lastUID).Msg("Mail watcher initialized")
		return w.saveLastUID()
	}

	criteria := imap.NewSearchCriteria()
	criteria.Uid = new(imap.SeqSet)
	criteria.Uid.AddRange(w.lastUID+1, 0)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("uid search: %w", err)
	}

	// Servers answer a UID range past the frontier with the newest message,
	// so the result still needs filtering against the marker.
	var fresh []uint32
	for _, uid := range uids {
		if uid > w.lastUID {
			fresh = append(fresh, uid)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(fresh...)
	messages := make(chan *imap.Message, len(fresh))
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- c.UidFetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, messages)
	}()

	maxSeen := w.lastUID
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		sender := formatSender(msg.Envelope)
		w.logger.Info().
			Str("from", sender).
			Str("subject", msg.Envelope.Subject).
			Uint32("uid", msg.Uid).
			Msg("New mail")
		if err := w.notifier.Notify("New mail from "+sender, msg.Envelope.Subject); err != nil {
			w.logger.Warn().Err(err).Msg("Notification failed")
		}
		if msg.Uid > maxSeen {
			maxSeen = msg.Uid
		}
	}
	if err := <-fetchDone; err != nil {
		return fmt.Errorf("uid fetch: %w", err)
	}

	w.lastUID = maxSeen
	return w.saveLastUID()
}

// formatSender prefers the display name and falls back to the address.
func formatSender(env *imap.Envelope) string {
	if len(env.From) == 0 {
		return "unknown sender"
	}
	from := env.From[0]
	if from.PersonalName != "" {
		return from.PersonalName
	}
	return from.Address()
}

// markerPath derives the UID marker file for this account and mailbox.
func (w *watcher) markerPath() string {
	account := sanitize(w.cfg.Username + "-" + w.cfg.Mailbox)
	return filepath.Join(w.cacheDir, "mailwatch-"+account+".uid")
}

// sanitize maps an account identifier onto a safe file name fragment.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}

func (w *watcher) loadLastUID() uint32 {
	data, err := os.ReadFile(w.markerPath())
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn().Err(err).Msg("Cannot read UID marker")
		}
		return 0
	}
	uid, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Corrupt UID marker, starting fresh")
		return 0
	}
	return uint32(uid)
}

func (w *watcher) saveLastUID() error {
	path := w.markerPath()
	data := []byte(strconv.FormatUint(uint64(w.lastUID), 10) + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write UID marker %s: %w", path, err)
	}
	return nil
}
