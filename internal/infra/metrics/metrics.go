// Package metrics provides Prometheus metrics for health-rag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "healthrag"

var (
	// DocumentSourceRequests counts document source lookups by source and outcome.
	DocumentSourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_source_requests_total",
			Help:      "Total number of document source lookups",
		},
		[]string{"source", "status"},
	)

	// StageDuration measures pipeline stage duration.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of chat pipeline stages in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"stage"},
	)

	// ChatOutcomes counts finished chat requests by outcome.
	ChatOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_outcomes_total",
			Help:      "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	// RerankRequests counts reranker calls by provider and outcome.
	RerankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_requests_total",
			Help:      "Total number of reranker calls",
		},
		[]string{"provider", "status"},
	)

	// NarrowedDocuments observes how many documents survive narrowing.
	NarrowedDocuments = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrowed_documents",
			Help:      "Distribution of narrowed context sizes",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8, 13},
		},
		[]string{"strategy"},
	)
)

// RecordDocumentSearch records one document source lookup. status is one of ok, empty, error, cache_hit.
func RecordDocumentSearch(source, status string) {
	DocumentSourceRequests.WithLabelValues(source, status).Inc()
}

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordOutcome records a finished chat request.
func RecordOutcome(outcome string) {
	ChatOutcomes.WithLabelValues(outcome).Inc()
}

// RecordNarrowed records the size of a narrowed context.
func RecordNarrowed(strategy string, size int) {
	NarrowedDocuments.WithLabelValues(strategy).Observe(float64(size))
}

// RecordRerank records one reranker call. status is one of ok, error.
func RecordRerank(provider, status string) {
	RerankRequests.WithLabelValues(provider, status).Inc()
}
