// pkg/control/client.go
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spitoglou/background-utils/pkg/service"
)

// ErrUnreachable wraps transport failures so callers can tell "daemon not
// running" apart from protocol errors.
var ErrUnreachable = errors.New("control endpoint unreachable")

// Client drives a control endpoint over its local HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the control endpoint at host:port.
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the manager snapshot.
func (c *Client) Status(ctx context.Context) (service.Snapshot, error) {
	var snap service.Snapshot
	if err := c.getJSON(ctx, "/api/v1/status", &snap); err != nil {
		return service.Snapshot{}, err
	}
	return snap, nil
}

// Stop asks the daemon to stop all services. It returns once the stop is
// dispatched, not once it completes.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "/api/v1/services/stop")
}

// Restart asks the daemon to restart all services under a new generation.
func (c *Client) Restart(ctx context.Context) error {
	return c.post(ctx, "/api/v1/services/restart")
}

// Quit asks the daemon process to shut down.
func (c *Client) Quit(ctx context.Context) error {
	return c.post(ctx, "/api/v1/quit")
}

// LogTail fetches the last lines of the daemon log file as plain text.
func (c *Client) LogTail(ctx context.Context, lines int) (string, error) {
	url := c.baseURL + "/api/v1/log?lines=" + strconv.Itoa(lines)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", unexpectedStatus(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return unexpectedStatus(resp)
	}
	return nil
}

func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("control endpoint: %s", msg)
}
