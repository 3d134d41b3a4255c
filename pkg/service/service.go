// pkg/service/service.go
// Package service manages the lifecycle of long-running background workers.
// A Registry collects named run functions, and a Manager starts them under a
// shared cancellable context, stops them cooperatively within a deadline, and
// reports their state without ever blocking on a worker.
package service

import (
	"context"
	"time"
)

// RunFunc is the body of a background service. Implementations must watch ctx
// and return within a bounded time once it is cancelled; use Sleep for waits.
// Returning nil or context.Canceled counts as a clean stop, any other error
// marks the service failed for the rest of the generation.
type RunFunc func(ctx context.Context) error

// Spec describes one service to run: a unique name and its body.
type Spec struct {
	Name string
	Run  RunFunc
}

// State is the lifecycle position of a single service.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
	StateFailed   State = "failed"
)

// Phase is the lifecycle position of the manager itself.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRunning      Phase = "running"
	PhaseShuttingDown Phase = "shutting_down"
	PhaseRestarting   Phase = "restarting"
)

// ServiceStatus is a point-in-time view of one service.
type ServiceStatus struct {
	Name  string `json:"name"`
	State State  `json:"state"`
	// Forced is set when the service missed the shutdown deadline and was
	// abandoned rather than joined.
	Forced    bool      `json:"forced,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Err       string    `json:"error,omitempty"`
}

// Snapshot is a point-in-time view of the manager. After a stop it keeps the
// last generation's terminal records until the next start replaces them.
type Snapshot struct {
	Phase      Phase           `json:"phase"`
	Generation uint64          `json:"generation"`
	RunID      string          `json:"run_id,omitempty"`
	Services   []ServiceStatus `json:"services"`
}
