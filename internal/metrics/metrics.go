// Package metrics exposes the Prometheus collectors observing queue
// depth, in-flight fetches, fetch outcomes, and RPC stream counts.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth            prometheus.Gauge
	inFlightFetches       prometheus.Gauge
	fetchOutcomesTotal    *prometheus.CounterVec
	fetchDurationSeconds  prometheus.Histogram
	rpcStreamsTotal       *prometheus.CounterVec
	ticketsResolvedTotal  prometheus.Counter

	once sync.Once
)

// Init registers the package's Prometheus collectors against the
// default registry. Safe to call multiple times.
func Init() {
	once.Do(func() {
		queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "urlfetcher_queue_depth",
			Help: "Number of fetch jobs currently queued.",
		})

		inFlightFetches = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "urlfetcher_in_flight_fetches",
			Help: "Number of fetches currently being executed by the worker pool.",
		})

		fetchOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "urlfetcher_fetch_outcomes_total",
				Help: "Total number of completed fetches, labeled by error code.",
			},
			[]string{"error_code"},
		)

		fetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "urlfetcher_fetch_duration_seconds",
			Help:    "Histogram of fetch durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		})

		rpcStreamsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "urlfetcher_rpc_streams_total",
				Help: "Total number of RPC streams opened, labeled by method.",
			},
			[]string{"method"},
		)

		ticketsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "urlfetcher_tickets_resolved_total",
			Help: "Total number of tickets resolved via ResolveFetch.",
		})
	})
}

// SetQueueDepth records the current fetch queue backlog.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// IncInFlightFetches increments the in-flight fetch gauge.
func IncInFlightFetches() {
	inFlightFetches.Inc()
}

// DecInFlightFetches decrements the in-flight fetch gauge.
func DecInFlightFetches() {
	inFlightFetches.Dec()
}

// ObserveFetch records a completed fetch's outcome and duration.
func ObserveFetch(errorCode int32, duration time.Duration) {
	fetchOutcomesTotal.WithLabelValues(errorCodeLabel(errorCode)).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveRPCStream records that a stream was opened for method.
func ObserveRPCStream(method string) {
	rpcStreamsTotal.WithLabelValues(method).Inc()
}

// IncTicketsResolved increments the resolved-ticket counter.
func IncTicketsResolved() {
	ticketsResolvedTotal.Inc()
}

func errorCodeLabel(code int32) string {
	if code == 0 {
		return "none"
	}
	return strconv.Itoa(int(code))
}
