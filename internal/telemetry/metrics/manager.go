package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterStoreFetches        *prometheus.CounterVec
	CounterSnapshotCache       *prometheus.CounterVec
	CounterDroppedRows         *prometheus.CounterVec
	CounterReports             *prometheus.CounterVec
	CounterRejectedSelections  *prometheus.CounterVec

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration    *prometheus.HistogramVec
	HistogramStoreFetchDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("teamcondition", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("teamcondition", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterStoreFetches := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_fetches",
		Help:      "The total number of record store fetches",
	}, []string{"source", "result"})
	counterSnapshotCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_cache_lookups",
		Help:      "Snapshot cache lookups by result (hit, miss, expired)",
	}, []string{"result"})
	counterDroppedRows := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dropped_rows",
		Help:      "Rows excluded from reports, by reason",
	}, []string{"reason"})
	counterReports := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reports",
		Help:      "The total number of built reports, by period mode",
	}, []string{"mode"})
	counterRejectedSelections := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rejected_selections",
		Help:      "Selections rejected with a validation or configuration error",
	}, []string{"kind"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "current_requests",
		Help:        "Current number of requests served",
		ConstLabels: nil,
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "life_signal",
		Help:        "Shows whether the service is alive",
		ConstLabels: nil,
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramStoreFetchDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_fetch_duration_seconds",
		Help:      "Duration of record store fetches in seconds",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	return &Manager{
		CounterRequests:             counterRequests,
		CounterHandleRequestPanic:   counterHandleRequestPanic,
		CounterRateLimitedRequests:  counterRateLimitedRequests,
		CounterStoreFetches:         counterStoreFetches,
		CounterSnapshotCache:        counterSnapshotCache,
		CounterDroppedRows:          counterDroppedRows,
		CounterReports:              counterReports,
		CounterRejectedSelections:   counterRejectedSelections,
		GaugeRequests:               gaugeRequests,
		GaugeLifeSignal:             gaugeLifeSignal,
		HistogramRequestDuration:    histogramRequestDuration,
		HistogramStoreFetchDuration: histogramStoreFetchDuration,
	}
}

// ObserveFetch records one record store fetch.
func (m *Manager) ObserveFetch(source string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CounterStoreFetches.WithLabelValues(source, result).Inc()
	m.HistogramStoreFetchDuration.WithLabelValues(source).Observe(took.Seconds())
}

// ObserveCache records one snapshot cache lookup: hit, miss or expired.
func (m *Manager) ObserveCache(result string) {
	m.CounterSnapshotCache.WithLabelValues(result).Inc()
}
