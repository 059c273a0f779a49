// Package scraper implements the fetch/retry/pause orchestration
// engine: the page-walking loop, the batch scheduler, the retry queue
// for failed items, and the pause/rate-limit state machine.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"workshop-scraper/config"
	"workshop-scraper/fetch"
	"workshop-scraper/models"
)

// ListingFetcher retrieves one listing page worth of item stubs. An
// empty result with a nil error is the end-of-pages signal.
type ListingFetcher interface {
	FetchListing(ctx context.Context, page int) ([]models.ItemRef, error)
}

// ErrRunActive is returned by Start when a run is already in flight.
var ErrRunActive = errors.New("scraper: run already active")

// Engine executes one scraping run on a single background worker.
// The controlling side never touches run state directly; it flips
// the pause controller, requests cancellation, and reads immutable
// snapshots.
type Engine struct {
	cfg     *config.Config
	listing ListingFetcher
	batcher *BatchScheduler
	pause   *PauseController
	queue   *RetryQueue
	metrics *Metrics
	delay   func(page int) time.Duration

	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	result   *models.RunResult
	snapshot atomic.Pointer[models.Snapshot]
}

// NewEngine builds an engine around the fetch collaborators.
func NewEngine(cfg *config.Config, listing ListingFetcher, detail DetailFetcher, metrics *Metrics) *Engine {
	pause := NewPauseController()
	queue := NewRetryQueue()
	processor := NewItemProcessor(detail, pause, metrics)

	e := &Engine{
		cfg:     cfg,
		listing: listing,
		batcher: NewBatchScheduler(processor, pause, queue, metrics),
		pause:   pause,
		queue:   queue,
		metrics: metrics,
		delay:   PageDelay,
	}
	e.snapshot.Store(&models.Snapshot{Phase: models.PhaseIdle, CurrentPage: 1})
	return e
}

// Start launches the background worker. Only one run may be active
// per engine at a time.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunActive
	}

	// A previous run may have ended while paused or rate limited;
	// each run starts unblocked with fresh retry accounting.
	e.pause.Reset()
	e.queue.Reset()

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		defer e.running.Store(false)
		e.result = e.run(runCtx)
	}()
	return nil
}

// Pause requests a manual pause; the worker suspends at the next
// loop-body check.
func (e *Engine) Pause() bool {
	if e.pause.Pause() {
		e.metrics.IncPause("manual")
		slog.Info("pause requested")
		return true
	}
	return false
}

// Resume clears both pause causes and lets the worker continue.
func (e *Engine) Resume() bool {
	if e.pause.Resume() {
		slog.Info("resuming, pause and rate limit flags cleared")
		return true
	}
	return false
}

// Cancel tears the run down. Every blocking wait in the worker
// observes it within one polling interval; the accumulated partial
// result stays available through Wait.
func (e *Engine) Cancel() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Done returns a channel closed when the worker has terminated.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the run terminates and returns its result.
func (e *Engine) Wait() *models.RunResult {
	if e.done != nil {
		<-e.done
	}
	return e.result
}

// Snapshot returns the worker's latest status view.
func (e *Engine) Snapshot() models.Snapshot {
	return *e.snapshot.Load()
}

// runState is owned exclusively by the worker goroutine.
type runState struct {
	page    int
	items   []*models.WorkshopItem
	pages   int
	fetches int
	errors  map[string]int
	start   time.Time
}

func (e *Engine) run(ctx context.Context) *models.RunResult {
	state := &runState{
		page:   1,
		errors: make(map[string]int),
		start:  time.Now(),
	}

	slog.Info("run started", slog.Int("batch_size", e.cfg.BatchSize))

	for {
		// 1. Suspend while paused or rate limited.
		if !e.waitWhileBlocked(ctx, state) {
			return e.terminate(state, models.PhaseCancelled)
		}

		// 2. Drain the retry queue before fetching anything new.
		// Items that fail again stay queued for the next pass; the
		// page fetch still proceeds so the run keeps moving.
		if e.queue.Len() > 0 {
			if !e.drainPending(ctx, state) {
				return e.terminate(state, models.PhaseCancelled)
			}
			if e.pause.IsBlocking() {
				continue
			}
		}

		// 3. Fetch the next listing page behind the politeness delay.
		e.publish(state, models.PhaseWalkingPages)
		if !sleepCtx(ctx, e.delay(state.page)) {
			return e.terminate(state, models.PhaseCancelled)
		}

		slog.Info("loading page", slog.Int("page", state.page))
		fetchStart := time.Now()
		refs, err := e.listing.FetchListing(ctx, state.page)
		state.fetches++

		if err != nil {
			if ctx.Err() != nil {
				return e.terminate(state, models.PhaseCancelled)
			}
			label := fetch.Label(err)
			state.errors[label]++
			e.metrics.IncError(label)

			switch {
			case fetch.IsRateLimited(err):
				slog.Warn("rate limit detected, auto-pausing",
					slog.Int("page", state.page),
					slog.Any("error", err),
				)
				e.pause.RateLimitDetected()
				e.metrics.IncPause("rate_limit")
				// Cursor untouched: the same page is retried after resume.
				continue
			case fetch.IsFatal(err):
				slog.Error("fatal fetch error, terminating with partial results",
					slog.Int("page", state.page),
					slog.Any("error", err),
				)
				return e.terminate(state, models.PhaseFailed)
			default:
				slog.Warn("transient fetch error, waiting for operator resume",
					slog.Int("page", state.page),
					slog.Any("error", err),
				)
				e.pause.Pause()
				e.metrics.IncPause("transient")
				continue
			}
		}
		e.metrics.ObserveListing(time.Since(fetchStart))

		// Zero items is the normal end of the listing.
		if len(refs) == 0 {
			slog.Info("no more items", slog.Int("total_pages", state.page-1))
			if !e.finalPass(ctx, state) {
				return e.terminate(state, models.PhaseCancelled)
			}
			return e.terminate(state, models.PhaseDone)
		}

		// 4. Dispatch the page in fixed-size batches, then advance.
		entries := wrapRefs(refs, state.page)
		for _, batch := range makeBatches(entries, e.cfg.BatchSize) {
			if e.pause.IsBlocking() || ctx.Err() != nil {
				e.queue.EnqueueAll(batch)
				e.metrics.SetPending(e.queue.Len())
				continue
			}
			records := e.batcher.ProcessBatch(ctx, batch, false)
			state.items = append(state.items, records...)
			e.publish(state, models.PhaseWalkingPages)
		}

		slog.Info("page completed",
			slog.Int("page", state.page),
			slog.Int("discovered", len(refs)),
			slog.Int("collected", len(state.items)),
			slog.Int("pending", e.queue.Len()),
		)
		state.pages++
		e.metrics.IncPage()
		state.page++
	}
}

// drainPending replays the retry queue grouped by origin page in
// ascending order. Pause state is re-checked before every sub-batch;
// an interrupted sub-batch is re-enqueued whole. Returns false when
// the run was cancelled mid-drain.
func (e *Engine) drainPending(ctx context.Context, state *runState) bool {
	entries := e.queue.DrainAll()
	if len(entries) == 0 {
		return true
	}

	e.publish(state, models.PhaseDrainingPending)
	slog.Info("processing pending items first", slog.Int("pending", len(entries)))

	groups, pages := GroupByPage(entries)
	for _, page := range pages {
		group := groups[page]
		slog.Info("retrying pending items",
			slog.Int("origin_page", page),
			slog.Int("count", len(group)),
		)
		for _, batch := range makeBatches(group, e.cfg.BatchSize) {
			if ctx.Err() != nil {
				e.queue.EnqueueAll(batch)
				e.metrics.SetPending(e.queue.Len())
				return false
			}
			if e.pause.IsBlocking() {
				e.queue.EnqueueAll(batch)
				e.metrics.SetPending(e.queue.Len())
				continue
			}
			records := e.batcher.ProcessBatch(ctx, batch, true)
			state.items = append(state.items, records...)
			e.publish(state, models.PhaseDrainingPending)
		}
	}

	slog.Info("finished pending pass", slog.Int("still_pending", e.queue.Len()))
	return true
}

// finalPass gives every remaining pending item exactly one more
// attempt after the listing is exhausted. Items that fail here are
// reported as still pending, never retried again. A pause or rate
// limit landing mid-pass suspends the pass; the remaining items still
// get their attempt after resume. Returns false when the run was
// cancelled before the pass could complete.
func (e *Engine) finalPass(ctx context.Context, state *runState) bool {
	if e.queue.Len() == 0 {
		return true
	}
	if !e.waitWhileBlocked(ctx, state) {
		return false
	}

	entries := e.queue.DrainAll()
	slog.Info("final retry of failed items", slog.Int("count", len(entries)))

	groups, pages := GroupByPage(entries)
	var ordered []models.PendingItem
	for _, page := range pages {
		ordered = append(ordered, groups[page]...)
	}

	// One item at a time: each attempt is preceded by a blocking
	// check, so a 429 on one item never costs the rest their attempt.
	for i := range ordered {
		if !e.waitWhileBlocked(ctx, state) {
			e.queue.EnqueueAll(ordered[i:])
			e.metrics.SetPending(e.queue.Len())
			return false
		}
		records := e.batcher.ProcessBatch(ctx, ordered[i:i+1], true)
		state.items = append(state.items, records...)
	}

	if still := e.queue.Len(); still > 0 {
		slog.Warn("items still pending after final retry", slog.Int("count", still))
	} else {
		slog.Info("all items processed")
	}
	return ctx.Err() == nil
}

// waitWhileBlocked suspends with a bounded polling interval while the
// pause controller is blocking. It returns false when the run is
// cancelled so a torn-down worker never leaves the controller hung.
func (e *Engine) waitWhileBlocked(ctx context.Context, state *runState) bool {
	announced := false
	for e.pause.IsBlocking() {
		if !announced {
			announced = true
			switch e.pause.State() {
			case StateRateLimited:
				slog.Info("rate limit pause, waiting for resume", slog.Int("page", state.page))
			default:
				slog.Info("paused", slog.Int("page", state.page))
			}
		}
		if e.pause.State() == StateRateLimited {
			e.publish(state, models.PhaseAwaitingRateLimit)
		} else {
			e.publish(state, models.PhaseAwaitingResume)
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(e.cfg.PollInterval):
		}
	}
	if announced {
		slog.Info("continuing after pause", slog.Int("page", state.page))
	}
	return ctx.Err() == nil
}

// terminate assembles the run result; pending items are reported,
// never silently dropped.
func (e *Engine) terminate(state *runState, phase models.Phase) *models.RunResult {
	stillPending := e.queue.DrainAll()
	e.metrics.SetPending(len(stillPending))

	result := &models.RunResult{
		Items:        state.items,
		StillPending: stillPending,
		Phase:        phase,
		StartTime:    state.start,
		EndTime:      time.Now(),
		PageCount:    state.pages,
		RequestCount: state.fetches,
		ErrorsByType: state.errors,
	}
	for _, n := range state.errors {
		result.ErrorCount += n
	}
	result.RetryCount = e.queue.TotalEnqueued()

	snap := &models.Snapshot{
		Phase:       phase,
		CurrentPage: state.page,
		Collected:   len(state.items),
		Pending:     len(stillPending),
	}
	e.snapshot.Store(snap)
	e.metrics.IncItems(len(state.items))

	slog.Info("run terminated",
		slog.String("phase", string(phase)),
		slog.Int("collected", len(state.items)),
		slog.Int("still_pending", len(stillPending)),
		slog.Duration("took", time.Since(state.start)),
	)
	return result
}

func (e *Engine) publish(state *runState, phase models.Phase) {
	e.snapshot.Store(&models.Snapshot{
		Phase:       phase,
		CurrentPage: state.page,
		Collected:   len(state.items),
		Pending:     e.queue.Len(),
	})
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
