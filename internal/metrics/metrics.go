// Package metrics declares the prometheus collectors served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aihoi"

var (
	// ChatRequests counts /chat requests. Labels: outcome (answered, clarification, error)
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_requests_total",
		Help:      "Chat requests by outcome",
	}, []string{"outcome"})

	// StageDuration measures each pipeline stage. Labels: stage
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Chat pipeline stage latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	// ProviderFailures counts upstream failures that were recovered. Labels: stage
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_failures_total",
		Help:      "Upstream provider failures recovered into neutral values",
	}, []string{"stage"})

	// MemoryWrites counts Remember outcomes. Labels: outcome
	MemoryWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memory_writes_total",
		Help:      "Conversation memory writes by outcome",
	}, []string{"outcome"})

	MemoryConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memory_conflicts_total",
		Help:      "Optimistic concurrency conflicts on the memory record",
	})

	// IngestedDocuments counts upserted knowledge documents. Labels: namespace
	IngestedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingested_documents_total",
		Help:      "Knowledge documents embedded and upserted",
	}, []string{"namespace"})
)

// ObserveStage records the time elapsed since start for stage
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ProviderFailure is shaped for failure hooks that receive the error
func ProviderFailure(stage string) func(error) {
	return func(error) {
		ProviderFailures.WithLabelValues(stage).Inc()
	}
}
