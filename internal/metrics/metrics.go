package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run, stage and client collectors, partitioned by network where it applies.

var (
	// Runs
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "run",
		Name:      "total",
		Help:      "Total command runs by outcome",
	}, []string{"command", "outcome"})

	StageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "affiliatefix",
		Subsystem: "run",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each run stage",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"stage"})

	// Loader
	AffiliatesLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "affiliatefix",
		Subsystem: "loader",
		Name:      "affiliates",
		Help:      "Affiliate rows in the last loaded table",
	}, []string{"network"})

	// Batcher
	CallsBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "batcher",
		Name:      "calls_built_total",
		Help:      "Total affiliatee state calls constructed",
	}, []string{"network"})

	BatchesEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "batcher",
		Name:      "batches_emitted_total",
		Help:      "Total batch_all extrinsics encoded",
	}, []string{"network"})

	BatchCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "affiliatefix",
		Subsystem: "batcher",
		Name:      "batch_calls",
		Help:      "Calls per emitted batch",
		Buckets:   []float64{1, 10, 25, 50, 75, 100, 250, 500},
	}, []string{"network"})

	CallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "batcher",
		Name:      "errors_total",
		Help:      "Total call construction or encoding failures",
	}, []string{"network"})

	// Remote clients
	ClientCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "client",
		Name:      "calls_total",
		Help:      "Total remote calls by client, method and status",
	}, []string{"client", "method", "status"})

	ClientLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "affiliatefix",
		Subsystem: "client",
		Name:      "call_duration_seconds",
		Help:      "Remote call duration",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"client", "method"})

	ClientRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "client",
		Name:      "retries_total",
		Help:      "Total retried remote calls",
	}, []string{"client", "method"})

	RateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "client",
		Name:      "rate_limit_waits_total",
		Help:      "Total calls delayed by the client rate limiter",
	}, []string{"client"})

	BreakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "client",
		Name:      "breaker_transitions_total",
		Help:      "Total circuit breaker state changes by target state",
	}, []string{"client", "state"})

	// Affiliation stages
	EventsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "affiliation",
		Name:      "events_resolved_total",
		Help:      "Total affiliation events resolved into account pairs",
	}, []string{"network"})

	ChainsTruncatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "affiliation",
		Name:      "chains_truncated_total",
		Help:      "Total affiliatee chains cut to the maximum affiliate level",
	}, []string{"network"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliatefix",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts delivered by channel and type",
	}, []string{"channel", "type"})
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
