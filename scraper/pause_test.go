package scraper

import "testing"

func TestPauseControllerTransitions(t *testing.T) {
	p := NewPauseController()

	if p.IsBlocking() {
		t.Fatalf("new controller should not block")
	}

	if !p.Pause() {
		t.Fatalf("pause from running should succeed")
	}
	if got := p.State(); got != StateManuallyPaused {
		t.Fatalf("state = %v, want manually paused", got)
	}
	if !p.IsBlocking() {
		t.Fatalf("manual pause should block")
	}

	// A second pause is a no-op.
	if p.Pause() {
		t.Fatalf("pause while already paused should be ignored")
	}

	if !p.Resume() {
		t.Fatalf("resume from manual pause should succeed")
	}
	if p.IsBlocking() {
		t.Fatalf("resumed controller should not block")
	}
	if p.Resume() {
		t.Fatalf("resume while running should be ignored")
	}
}

func TestRateLimitOverridesManualPause(t *testing.T) {
	p := NewPauseController()
	p.Pause()
	p.RateLimitDetected()
	if got := p.State(); got != StateRateLimited {
		t.Fatalf("state = %v, want rate limited", got)
	}
	// Manual pause never downgrades a rate-limit pause.
	if p.Pause() {
		t.Fatalf("pause should not replace rate limit state")
	}
	if got := p.State(); got != StateRateLimited {
		t.Fatalf("state = %v, want rate limited", got)
	}
}

func TestResetClearsLeftoverState(t *testing.T) {
	p := NewPauseController()
	p.RateLimitDetected()

	p.Reset()

	if p.IsBlocking() {
		t.Fatalf("reset controller should not block")
	}
	if got := p.State(); got != StateRunning {
		t.Fatalf("state = %v, want running", got)
	}
}

func TestResumeClearsBothCauses(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*PauseController)
	}{
		{name: "manual pause", setup: func(p *PauseController) { p.Pause() }},
		{name: "rate limit", setup: func(p *PauseController) { p.RateLimitDetected() }},
		{name: "manual then rate limit", setup: func(p *PauseController) { p.Pause(); p.RateLimitDetected() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPauseController()
			tt.setup(p)
			if !p.Resume() {
				t.Fatalf("resume should succeed")
			}
			if p.IsBlocking() {
				t.Fatalf("resume must clear every pause cause")
			}
			if got := p.State(); got != StateRunning {
				t.Fatalf("state = %v, want running", got)
			}
		})
	}
}
