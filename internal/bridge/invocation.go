package bridge

import (
	"sync"

	"github.com/ehlowr0ld/agent-zero/internal/domain"
)

// InvocationState tracks the lifecycle of a single engine invocation.
type InvocationState int

const (
	InvocationIdle InvocationState = iota
	InvocationRunning
	InvocationCompleted
	InvocationFailed
)

func (s InvocationState) String() string {
	switch s {
	case InvocationIdle:
		return "idle"
	case InvocationRunning:
		return "running"
	case InvocationCompleted:
		return "completed"
	case InvocationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InvocationResult is the complete record of one engine run: the engine's own
// payload, everything captured through the output hooks, and timing. Error is
// a message rather than an error value so results can cross process and
// serialization boundaries intact.
type InvocationResult struct {
	Success         bool                 `json:"success"`
	EnginePayload   any                  `json:"engine_payload,omitempty"`
	Error           string               `json:"error,omitempty"`
	CapturedOutput  string               `json:"captured_output"`
	Events          []domain.OutputEvent `json:"events"`
	DurationSeconds float64              `json:"duration_seconds"`
	ModelID         string               `json:"model_id,omitempty"`
}

// invocation guards a bridge against overlapping runs and records the state
// of the run in flight.
type invocation struct {
	mu    sync.RWMutex
	state InvocationState
}

func (inv *invocation) begin() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state == InvocationRunning {
		return false
	}
	inv.state = InvocationRunning
	return true
}

func (inv *invocation) finish(success bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if success {
		inv.state = InvocationCompleted
	} else {
		inv.state = InvocationFailed
	}
}

func (inv *invocation) current() InvocationState {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state
}
