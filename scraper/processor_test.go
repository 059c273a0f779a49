package scraper

import (
	"context"
	"errors"
	"testing"

	"workshop-scraper/fetch"
	"workshop-scraper/models"
	"workshop-scraper/parser"
)

func TestProcessSkipsNetworkWhenPaused(t *testing.T) {
	calls := 0
	fetcher := detailFunc(func(ctx context.Context, ref models.ItemRef) (parser.Detail, error) {
		calls++
		return parser.Detail{}, nil
	})

	pause := NewPauseController()
	pause.Pause()
	processor := NewItemProcessor(fetcher, pause, NewMetrics())

	_, err := processor.Process(context.Background(), models.ItemRef{Name: "x"})
	if err == nil {
		t.Fatalf("expected error while paused")
	}
	if calls != 0 {
		t.Fatalf("detail fetch ran %d times while paused, want 0", calls)
	}
}

func TestProcessRateLimitTriggersAutoPause(t *testing.T) {
	fetcher := detailFunc(func(ctx context.Context, ref models.ItemRef) (parser.Detail, error) {
		return parser.Detail{}, fetch.ErrRateLimited{Err: errors.New("429")}
	})

	pause := NewPauseController()
	processor := NewItemProcessor(fetcher, pause, NewMetrics())

	_, err := processor.Process(context.Background(), models.ItemRef{Name: "x"})
	if !fetch.IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limited", err)
	}
	if pause.State() != StateRateLimited {
		t.Fatalf("pause state = %v, want rate limited", pause.State())
	}
}

func TestProcessBuildsRecord(t *testing.T) {
	fetcher := detailFunc(func(ctx context.Context, ref models.ItemRef) (parser.Detail, error) {
		return parser.Detail{
			Type:        "Aircraft Livery",
			Airframe:    "KR-67",
			Subscribers: 12,
			FileSize:    "312KB",
			Description: "Desert scheme for the Ifrit.",
		}, nil
	})

	processor := NewItemProcessor(fetcher, NewPauseController(), NewMetrics())
	ref := models.ItemRef{Name: "Desert Ifrit", DetailURL: "https://example.test/item/1"}

	record, err := processor.Process(context.Background(), ref)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if record.Name != "Desert Ifrit" || record.URL != ref.DetailURL {
		t.Errorf("identity fields = %q/%q", record.Name, record.URL)
	}
	if record.DisplayType != "KR-67 livery" {
		t.Errorf("display type = %q, want KR-67 livery", record.DisplayType)
	}
	if record.Subscribers != 12 {
		t.Errorf("subscribers = %d, want 12", record.Subscribers)
	}
	if record.ScrapedAt.IsZero() {
		t.Errorf("scraped_at not stamped")
	}
}
