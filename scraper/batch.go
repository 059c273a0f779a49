package scraper

import (
	"context"
	"log/slog"

	"workshop-scraper/models"
)

// BatchScheduler drives the item processor over fixed-size batches.
// The batch size bounds burst size against the upstream; items are
// processed strictly in order so per-page progress reporting stays
// sequential.
type BatchScheduler struct {
	processor *ItemProcessor
	pause     *PauseController
	queue     *RetryQueue
	metrics   *Metrics
}

// NewBatchScheduler wires a scheduler to its collaborators.
func NewBatchScheduler(processor *ItemProcessor, pause *PauseController, queue *RetryQueue, metrics *Metrics) *BatchScheduler {
	return &BatchScheduler{
		processor: processor,
		pause:     pause,
		queue:     queue,
		metrics:   metrics,
	}
}

// ProcessBatch handles one batch in order. When a pause or
// cancellation lands mid-batch every unprocessed entry, including the
// current one, goes back on the retry queue so no item is lost. The
// entries carry their origin page and index, which is what gets
// reported during retry passes.
func (b *BatchScheduler) ProcessBatch(ctx context.Context, batch []models.PendingItem, retryPass bool) []*models.WorkshopItem {
	var records []*models.WorkshopItem

	for i, entry := range batch {
		if b.pause.IsBlocking() || ctx.Err() != nil {
			b.queue.EnqueueAll(batch[i:])
			slog.Info("batch interrupted, remainder re-enqueued",
				slog.Int("page", entry.Page),
				slog.Int("requeued", len(batch)-i),
				slog.Bool("retry_pass", retryPass),
			)
			break
		}

		record, err := b.processor.Process(ctx, entry.Ref)
		if err != nil {
			b.queue.Enqueue(entry)
			b.metrics.IncRetries()
			slog.Warn("item failed, added to retry queue",
				slog.Int("page", entry.Page),
				slog.Int("item", entry.Index+1),
				slog.String("name", entry.Ref.Name),
				slog.Bool("retry_pass", retryPass),
				slog.Any("error", err),
			)
			continue
		}

		records = append(records, record)
		slog.Info("found item",
			slog.Int("page", entry.Page),
			slog.Int("item", entry.Index+1),
			slog.String("type", record.DisplayType),
			slog.String("name", record.Name),
			slog.Bool("retry_pass", retryPass),
		)
	}

	b.metrics.SetPending(b.queue.Len())
	return records
}

// makeBatches splits entries into chunks of at most size.
func makeBatches(entries []models.PendingItem, size int) [][]models.PendingItem {
	if size <= 0 {
		size = 1
	}
	var batches [][]models.PendingItem
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}

// wrapRefs converts freshly discovered listing stubs into pending
// entries carrying their origin page and index by value.
func wrapRefs(refs []models.ItemRef, page int) []models.PendingItem {
	entries := make([]models.PendingItem, 0, len(refs))
	for i, ref := range refs {
		entries = append(entries, models.PendingItem{Ref: ref, Page: page, Index: i})
	}
	return entries
}
