package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the run engine.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      prometheus.Counter
	ItemsTotal      prometheus.Counter
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	PausesTotal     *prometheus.CounterVec
	PendingDepth    prometheus.Gauge
	DetailDuration  prometheus.Histogram
	ListingDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workshop_pages_total",
			Help: "Total listing pages successfully processed.",
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workshop_items_collected_total",
			Help: "Total item records collected.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workshop_item_retries_total",
			Help: "Total items placed on the retry queue.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_fetch_errors_total",
			Help: "Total fetch errors by classification.",
		},
		[]string{"error_type"},
	)
	pauses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_pauses_total",
			Help: "Total pause transitions by cause.",
		},
		[]string{"cause"},
	)
	pending := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workshop_pending_items",
			Help: "Current retry queue depth.",
		},
	)
	detailDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workshop_detail_fetch_duration_seconds",
			Help:    "Detail page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	listingDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workshop_listing_fetch_duration_seconds",
			Help:    "Listing page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pages, items, retries, errorsTotal, pauses, pending, detailDuration, listingDuration)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		ItemsTotal:      items,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		PausesTotal:     pauses,
		PendingDepth:    pending,
		DetailDuration:  detailDuration,
		ListingDuration: listingDuration,
	}
}

// IncPage increments the processed page counter.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncItems adds collected records to the item counter.
func (m *Metrics) IncItems(n int) {
	if m == nil {
		return
	}
	m.ItemsTotal.Add(float64(n))
}

// IncRetries increments the retry enqueue counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a classification label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncPause increments the pause counter for a cause label.
func (m *Metrics) IncPause(cause string) {
	if m == nil {
		return
	}
	m.PausesTotal.WithLabelValues(cause).Inc()
}

// SetPending records the current retry queue depth.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingDepth.Set(float64(n))
}

// ObserveDetail records a detail fetch duration.
func (m *Metrics) ObserveDetail(d time.Duration) {
	if m == nil {
		return
	}
	m.DetailDuration.Observe(d.Seconds())
}

// ObserveListing records a listing fetch duration.
func (m *Metrics) ObserveListing(d time.Duration) {
	if m == nil {
		return
	}
	m.ListingDuration.Observe(d.Seconds())
}
