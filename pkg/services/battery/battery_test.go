package battery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/distatus/battery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spitoglou/background-utils/pkg/config"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingNotifier) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func stubBatteries(t *testing.T, batteries []*battery.Battery, err error) {
	t.Helper()
	orig := getBatteries
	getBatteries = func() ([]*battery.Battery, error) {
		return batteries, err
	}
	t.Cleanup(func() { getBatteries = orig })
}

func newTestMonitor(notifier *recordingNotifier) *monitor {
	return &monitor{
		cfg:      config.BatteryConfig{WarnBelowPercent: 15},
		notifier: notifier,
		logger:   zerolog.Nop(),
	}
}

func TestPollWarnsOncePerDischarge(t *testing.T) {
	notifier := &recordingNotifier{}
	m := newTestMonitor(notifier)

	stubBatteries(t, []*battery.Battery{{
		Current: 10, Full: 100,
		State: battery.State{Raw: battery.Discharging},
	}}, nil)

	m.poll()
	require.Equal(t, 1, notifier.count(), "first low reading must notify")

	m.poll()
	assert.Equal(t, 1, notifier.count(), "repeat low readings must not re-notify")
}

func TestPollRearmsAfterCharging(t *testing.T) {
	notifier := &recordingNotifier{}
	m := newTestMonitor(notifier)

	stubBatteries(t, []*battery.Battery{{
		Current: 10, Full: 100,
		State: battery.State{Raw: battery.Discharging},
	}}, nil)
	m.poll()
	require.Equal(t, 1, notifier.count())

	stubBatteries(t, []*battery.Battery{{
		Current: 12, Full: 100,
		State: battery.State{Raw: battery.Charging},
	}}, nil)
	m.poll()
	assert.False(t, m.warned, "charging must rearm the warning latch")

	stubBatteries(t, []*battery.Battery{{
		Current: 8, Full: 100,
		State: battery.State{Raw: battery.Discharging},
	}}, nil)
	m.poll()
	assert.Equal(t, 2, notifier.count(), "a new discharge below threshold must notify again")
}

func TestPollAboveThresholdDoesNotWarn(t *testing.T) {
	notifier := &recordingNotifier{}
	m := newTestMonitor(notifier)

	stubBatteries(t, []*battery.Battery{{
		Current: 80, Full: 100,
		State: battery.State{Raw: battery.Discharging},
	}}, nil)

	m.poll()
	assert.Equal(t, 0, notifier.count())
}

func TestPollSurvivesMissingBatteryInfo(t *testing.T) {
	notifier := &recordingNotifier{}
	m := newTestMonitor(notifier)

	stubBatteries(t, nil, errors.New("no sysfs"))
	m.poll()

	stubBatteries(t, []*battery.Battery{}, nil)
	m.poll()

	assert.Equal(t, 0, notifier.count())
	assert.False(t, m.warned)
}

func TestBatteryServiceStopsOnCancel(t *testing.T) {
	stubBatteries(t, []*battery.Battery{}, nil)

	run := New(config.BatteryConfig{Interval: time.Hour, WarnBelowPercent: 15}, &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("battery service did not stop after cancel")
	}
}
