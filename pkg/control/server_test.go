// pkg/control/server_test.go
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spitoglou/background-utils/pkg/service"
)

func newRunningManager(t *testing.T, names ...string) *service.Manager {
	t.Helper()
	reg := service.NewRegistry()
	for _, name := range names {
		require.NoError(t, reg.Add(service.Spec{Name: name, Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}))
	}
	m := service.NewManager(reg, service.WithStopTimeout(2*time.Second))
	m.Start()
	t.Cleanup(func() { m.Stop(2 * time.Second) })
	return m
}

func waitForPhase(t *testing.T, m *service.Manager, phase service.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Status().Phase == phase
	}, 2*time.Second, 10*time.Millisecond, "manager never reached phase %s", phase)
}

func waitForGeneration(t *testing.T, m *service.Manager, gen uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Status().Generation == gen
	}, 2*time.Second, 10*time.Millisecond, "manager never reached generation %d", gen)
}

func writeLogLines(t *testing.T, count int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	var b strings.Builder
	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestHealthzEndpoint(t *testing.T) {
	s := NewServer(Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestStatusEndpoint(t *testing.T) {
	m := newRunningManager(t, "steady")
	s := NewServer(Options{Manager: m})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var snap service.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, service.PhaseRunning, snap.Phase)
	assert.Equal(t, uint64(1), snap.Generation)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "steady", snap.Services[0].Name)
	assert.Equal(t, service.StateRunning, snap.Services[0].State)
}

func TestStopEndpointDispatches(t *testing.T) {
	m := newRunningManager(t, "steady")
	s := NewServer(Options{Manager: m, StopTimeout: 2 * time.Second})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/services/stop", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "stopping", ack["status"])

	waitForPhase(t, m, service.PhaseIdle)
}

func TestRestartEndpointDispatches(t *testing.T) {
	m := newRunningManager(t, "steady")
	s := NewServer(Options{Manager: m, StopTimeout: 2 * time.Second})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/services/restart", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	waitForGeneration(t, m, 2)
	assert.Equal(t, service.PhaseRunning, m.Status().Phase)
}

func TestQuitEndpointFiresOnce(t *testing.T) {
	var quits atomic.Int32
	s := NewServer(Options{OnQuit: func() { quits.Add(1) }})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/api/v1/quit", "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	assert.Equal(t, int32(1), quits.Load())
}

func TestLogTailEndpoint(t *testing.T) {
	logFile := writeLogLines(t, 150)
	s := NewServer(Options{LogFile: logFile})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(query string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + "/api/v1/log" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	t.Run("default line count", func(t *testing.T) {
		status, body := get("")
		require.Equal(t, http.StatusOK, status)
		lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
		assert.Len(t, lines, 100)
		assert.Equal(t, "line 51", lines[0])
		assert.Equal(t, "line 150", lines[len(lines)-1])
	})

	t.Run("explicit line count", func(t *testing.T) {
		status, body := get("?lines=5")
		require.Equal(t, http.StatusOK, status)
		lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
		assert.Len(t, lines, 5)
		assert.Equal(t, "line 146", lines[0])
	})

	t.Run("count larger than file", func(t *testing.T) {
		status, body := get("?lines=1000")
		require.Equal(t, http.StatusOK, status)
		lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
		assert.Len(t, lines, 150)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		status, body := get("?lines=0")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "invalid lines")
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		status, _ := get("?lines=many")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestLogTailDisabled(t *testing.T) {
	s := NewServer(Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/log")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogTailMissingFile(t *testing.T) {
	s := NewServer(Options{LogFile: filepath.Join(t.TempDir(), "absent.log")})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/log")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestParseLogQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "default when omitted", query: "", want: 100},
		{name: "explicit value", query: "lines=25", want: 25},
		{name: "upper bound", query: "lines=1000", want: 1000},
		{name: "zero rejected", query: "lines=0", wantErr: true},
		{name: "negative rejected", query: "lines=-5", wantErr: true},
		{name: "too large rejected", query: "lines=1001", wantErr: true},
		{name: "non-numeric rejected", query: "lines=many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/log?"+tt.query, nil)
			got, err := ParseLogQuery(r)
			if tt.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	m := newRunningManager(t, "steady")
	s := NewServer(Options{Addr: "127.0.0.1:0", Manager: m, StopTimeout: time.Second})
	require.NoError(t, s.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Shutdown(ctx))
	}()

	addr := s.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStartAddrInUse(t *testing.T) {
	first := NewServer(Options{Addr: "127.0.0.1:0"})
	require.NoError(t, first.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = first.Shutdown(ctx)
	}()

	second := NewServer(Options{Addr: first.Addr()})
	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control listen")
}
