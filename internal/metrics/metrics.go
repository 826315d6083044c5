// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal    *prometheus.CounterVec
	crawlerFetchErrors   prometheus.Counter
	crawlerPersistErrors prometheus.Counter
	crawlerClaimsTotal   prometheus.Counter
	crawlerClaimErrors   prometheus.Counter
	crawlerLinksEnqueued prometheus.Counter
	crawlerBusyWorkers   prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of pages persisted, labeled by HTTP status.",
			},
			[]string{"status"},
		)

		crawlerFetchErrors = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_fetch_errors_total",
				Help: "Total number of per-URL fetch failures.",
			},
		)

		crawlerPersistErrors = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_persist_errors_total",
				Help: "Total number of page upsert or link enqueue failures.",
			},
		)

		crawlerClaimsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_claims_total",
				Help: "Total number of frontier rows claimed.",
			},
		)

		crawlerClaimErrors = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_claim_errors_total",
				Help: "Total number of transient claim failures.",
			},
		)

		crawlerLinksEnqueued = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_links_enqueued_total",
				Help: "Total number of in-scope links offered to the frontier.",
			},
		)

		crawlerBusyWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_busy_workers",
				Help: "Number of workers currently processing a claimed task.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the persisted page counter for an HTTP status.
func ObservePage(statusCode int) {
	if crawlerPagesTotal != nil {
		crawlerPagesTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	}
}

// ObserveFetchError increments the fetch failure counter.
func ObserveFetchError() {
	if crawlerFetchErrors != nil {
		crawlerFetchErrors.Inc()
	}
}

// ObservePersistError increments the persist failure counter.
func ObservePersistError() {
	if crawlerPersistErrors != nil {
		crawlerPersistErrors.Inc()
	}
}

// ObserveClaim increments the claim counter.
func ObserveClaim() {
	if crawlerClaimsTotal != nil {
		crawlerClaimsTotal.Inc()
	}
}

// ObserveClaimError increments the claim failure counter.
func ObserveClaimError() {
	if crawlerClaimErrors != nil {
		crawlerClaimErrors.Inc()
	}
}

// ObserveLinksEnqueued adds to the enqueued links counter.
func ObserveLinksEnqueued(n int) {
	if crawlerLinksEnqueued != nil && n > 0 {
		crawlerLinksEnqueued.Add(float64(n))
	}
}

// IncBusyWorkers increments the busy workers gauge.
func IncBusyWorkers() {
	if crawlerBusyWorkers != nil {
		crawlerBusyWorkers.Inc()
	}
}

// DecBusyWorkers decrements the busy workers gauge.
func DecBusyWorkers() {
	if crawlerBusyWorkers != nil {
		crawlerBusyWorkers.Dec()
	}
}
