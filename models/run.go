package models

import "time"

// Phase identifies what the run worker is currently doing.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseWalkingPages      Phase = "walking_pages"
	PhaseDrainingPending   Phase = "draining_pending"
	PhaseAwaitingResume    Phase = "awaiting_resume"
	PhaseAwaitingRateLimit Phase = "awaiting_rate_limit_clear"
	PhaseDone              Phase = "done"
	PhaseFailed            Phase = "failed"
	PhaseCancelled         Phase = "cancelled"
)

// Terminal reports whether the phase means the worker has stopped.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

// Snapshot is an immutable status view produced by the run worker for
// the controlling side.
type Snapshot struct {
	Phase       Phase `json:"phase"`
	CurrentPage int   `json:"current_page"`
	Collected   int   `json:"collected"`
	Pending     int   `json:"pending"`
}

// RunResult holds the overall outcome of a scraping run. Items is the
// ordered collection; StillPending lists every item that survived the
// final retry pass, so incomplete results are reported rather than
// silently dropped.
type RunResult struct {
	Items        []*WorkshopItem
	StillPending []PendingItem
	Phase        Phase
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	RequestCount int
	RetryCount   int
	ErrorCount   int
	ErrorsByType map[string]int
}
