// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the gateway.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or go out of the system: lookups, connects, reads, writes.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupAttemptCount counts every endpoint-mapper lookup attempt made.
	LookupAttemptCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pniohart_lookup_attempt_total",
			Help: "Number of endpoint-mapper lookup attempts made.",
		},
	)

	// LookupFailureCount counts lookups that returned an error: retry
	// budget exhausted, invalid address, or a socket failure.
	LookupFailureCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pniohart_lookup_failure_total",
			Help: "Number of device lookups that failed.",
		},
	)

	// ConnectFailureCount counts failed PNIO Connect handshakes.
	ConnectFailureCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pniohart_connect_failure_total",
			Help: "Number of PNIO connect requests that failed.",
		},
	)

	// ReadNotReadyCount counts IOD read cycles that exhausted their
	// retry budget without the module ever reporting fresh data.
	ReadNotReadyCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pniohart_read_not_ready_total",
			Help: "Number of HART command reads abandoned after the data-ready retry budget was spent.",
		}, []string{"command"})

	// PnioStatusErrorCount tracks non-zero PNIO status codes seen in
	// IOD write responses, labeled by the hex status value.
	PnioStatusErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pniohart_pnio_status_error_total",
			Help: "Number of IOD write responses carrying a non-zero PNIO status, by status code.",
		}, []string{"status"})

	// CommandLatencyHistogram tracks the write+read round-trip latency
	// for a HART command, labeled by command number.
	CommandLatencyHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pniohart_command_latency_seconds",
			Help: "HART command write+read round-trip latency distribution (seconds).",
			Buckets: []float64{
				0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20,
			},
		},
		[]string{"command"})

	// StoreSize tracks the number of pnio devices currently held in the
	// worker's in-memory store.
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pniohart_store_size",
			Help: "Number of devices currently tracked in the worker's store.",
		},
	)

	// PollingHistogram tracks how long each reconcile+read polling cycle
	// takes.
	PollingHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pniohart_polling_interval_seconds",
			Help:    "Reconcile+read polling cycle duration distribution (seconds).",
			Buckets: prometheus.LinearBuckets(0, 1, 20),
		},
	)
)

// init() prints a log message to let the user know that the package has been
// loaded and the metrics registered. The metrics are auto-registered, which
// means they are registered as soon as this package is loaded, and the exact
// time this occurs (and whether this occurs at all in a given context) can be
// opaque.
func init() {
	log.Println("Prometheus metrics in pnio-hart.metrics are registered.")
}
