package scraper

import (
	"sort"
	"sync"

	"workshop-scraper/models"
)

// RetryQueue holds items whose detail fetch failed or could not be
// attempted. Entries carry their own origin page and index, so a
// retry pass reports against where the item was first discovered.
type RetryQueue struct {
	mu       sync.Mutex
	entries  []models.PendingItem
	enqueued int
}

// NewRetryQueue returns an empty queue.
func NewRetryQueue() *RetryQueue {
	return &RetryQueue{}
}

// Enqueue appends one entry.
func (q *RetryQueue) Enqueue(entry models.PendingItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
	q.enqueued++
}

// EnqueueAll appends a group of entries in order.
func (q *RetryQueue) EnqueueAll(entries []models.PendingItem) {
	if len(entries) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entries...)
	q.enqueued += len(entries)
}

// TotalEnqueued returns how many entries were ever placed on the
// queue, counting re-enqueues.
func (q *RetryQueue) TotalEnqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued
}

// Reset clears queued entries and the lifetime enqueue counter so a
// new run starts its accounting from zero.
func (q *RetryQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.enqueued = 0
}

// DrainAll atomically empties the queue and returns the snapshot.
func (q *RetryQueue) DrainAll() []models.PendingItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := q.entries
	q.entries = nil
	return entries
}

// Len returns the current queue depth.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// GroupByPage buckets entries by origin page and returns the pages in
// ascending order so retry reporting stays deterministic.
func GroupByPage(entries []models.PendingItem) (map[int][]models.PendingItem, []int) {
	groups := make(map[int][]models.PendingItem, len(entries))
	for _, entry := range entries {
		groups[entry.Page] = append(groups[entry.Page], entry)
	}

	pages := make([]int, 0, len(groups))
	for page := range groups {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return groups, pages
}
