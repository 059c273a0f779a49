package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop-scraper/fetch"
	"workshop-scraper/models"
	"workshop-scraper/parser"
)

// DetailFetcher retrieves and extracts one item's detail page.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, ref models.ItemRef) (parser.Detail, error)
}

// errPausedBeforeFetch marks an item skipped because the run was
// already blocked; no network attempt was burned.
var errPausedBeforeFetch = errors.New("paused before detail fetch")

// ItemProcessor turns one item reference into a record. Failures are
// normalized to an error return, never a panic; a 429 on a detail
// fetch flips the shared pause controller into the rate-limited
// state.
type ItemProcessor struct {
	fetcher DetailFetcher
	pause   *PauseController
	metrics *Metrics
}

// NewItemProcessor wires a processor to its collaborators.
func NewItemProcessor(fetcher DetailFetcher, pause *PauseController, metrics *Metrics) *ItemProcessor {
	return &ItemProcessor{
		fetcher: fetcher,
		pause:   pause,
		metrics: metrics,
	}
}

// Process fetches and extracts one item. The pause controller is
// consulted first so a blocked run re-enqueues without touching the
// network.
func (p *ItemProcessor) Process(ctx context.Context, ref models.ItemRef) (*models.WorkshopItem, error) {
	if p.pause.IsBlocking() {
		return nil, errPausedBeforeFetch
	}

	start := time.Now()
	detail, err := p.fetcher.FetchDetail(ctx, ref)
	if err != nil {
		if fetch.IsRateLimited(err) {
			p.pause.RateLimitDetected()
			p.metrics.IncPause("rate_limit")
		}
		p.metrics.IncError(fetch.Label(err))
		return nil, fmt.Errorf("fetch detail for %q: %w", ref.Name, err)
	}
	p.metrics.ObserveDetail(time.Since(start))

	return &models.WorkshopItem{
		Name:        ref.Name,
		Type:        detail.Type,
		DisplayType: parser.DisplayType(detail.Type, detail.Airframe),
		Airframe:    detail.Airframe,
		Visitors:    detail.Visitors,
		Subscribers: detail.Subscribers,
		Favorites:   detail.Favorites,
		Awards:      detail.Awards,
		Comments:    detail.Comments,
		Changes:     detail.Changes,
		FileSize:    detail.FileSize,
		Uploaded:    detail.Uploaded,
		Updated:     detail.Updated,
		Description: detail.Description,
		URL:         ref.DetailURL,
		ScrapedAt:   time.Now(),
	}, nil
}
