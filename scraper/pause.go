package scraper

import "sync"

// PauseState is the tri-state flag shared between the run worker and
// the controlling side.
type PauseState int32

const (
	// StateRunning means work may proceed.
	StateRunning PauseState = iota

	// StateManuallyPaused means an operator paused the run, or a
	// transient fetch failure is waiting for operator intervention.
	StateManuallyPaused

	// StateRateLimited means the upstream signalled 429 and the run
	// auto-paused.
	StateRateLimited
)

// String returns a log-friendly name for the state.
func (s PauseState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateManuallyPaused:
		return "paused"
	case StateRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// PauseController coordinates pause, resume, and rate-limit flags
// between the worker and the controller. Resume deliberately clears
// both pause causes at once regardless of which one was active; the
// merged-flag behavior is part of the documented contract.
type PauseController struct {
	mu    sync.Mutex
	state PauseState
}

// NewPauseController returns a controller in the running state.
func NewPauseController() *PauseController {
	return &PauseController{state: StateRunning}
}

// Pause requests a manual pause. It only takes effect while running;
// a rate-limit pause is not downgraded.
func (p *PauseController) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return false
	}
	p.state = StateManuallyPaused
	return true
}

// RateLimitDetected forces the rate-limited state from any state.
func (p *PauseController) RateLimitDetected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateRateLimited
}

// Resume clears both the manual pause and the rate-limit condition.
func (p *PauseController) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		return false
	}
	p.state = StateRunning
	return true
}

// Reset returns the controller to the running state, discarding any
// pause or rate-limit condition left over from a previous run.
func (p *PauseController) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateRunning
}

// State returns the current pause state.
func (p *PauseController) State() PauseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsBlocking reports whether worker loops must suspend before doing
// more work.
func (p *PauseController) IsBlocking() bool {
	return p.State() != StateRunning
}
