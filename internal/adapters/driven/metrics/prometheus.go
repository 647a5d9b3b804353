// Package metrics records core operational measurements with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder owns a private registry so multiple instances never collide.
type Recorder struct {
	registry *prometheus.Registry

	indexRuns         *prometheus.CounterVec
	indexChunks       prometheus.Counter
	embeddingFailures prometheus.Counter
	fallbacks         *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	retrievalResults  *prometheus.HistogramVec
	poolFailures      *prometheus.CounterVec
}

// NewRecorder creates and registers all collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		indexRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recall_index_runs_total",
			Help: "Document index runs by outcome.",
		}, []string{"status"}),
		indexChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_index_chunks_total",
			Help: "Chunks written by successful index runs.",
		}),
		embeddingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_embedding_failures_total",
			Help: "Chunks stored without an embedding.",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recall_embedding_fallbacks_total",
			Help: "Remote embedding failures answered by the local provider.",
		}, []string{"provider"}),
		retrievalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recall_retrieval_duration_seconds",
			Help:    "Search and retrieval latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		retrievalResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recall_retrieval_results",
			Help:    "Results returned per search or retrieval.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}, []string{"operation"}),
		poolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recall_pool_failures_total",
			Help: "Content pools that degraded to empty.",
		}, []string{"source"}),
	}

	r.registry.MustRegister(
		r.indexRuns,
		r.indexChunks,
		r.embeddingFailures,
		r.fallbacks,
		r.retrievalDuration,
		r.retrievalResults,
		r.poolFailures,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IndexCompleted records one index run.
func (r *Recorder) IndexCompleted(chunks, failedEmbeddings int, _ time.Duration, err error) {
	if err != nil {
		r.indexRuns.WithLabelValues("error").Inc()
		return
	}
	r.indexRuns.WithLabelValues("ok").Inc()
	r.indexChunks.Add(float64(chunks))
	r.embeddingFailures.Add(float64(failedEmbeddings))
}

// RetrievalCompleted records latency and result count for an operation.
func (r *Recorder) RetrievalCompleted(operation string, results int, elapsed time.Duration) {
	r.retrievalDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	r.retrievalResults.WithLabelValues(operation).Observe(float64(results))
}

// EmbeddingFallback counts a fallback for provider.
func (r *Recorder) EmbeddingFallback(provider string) {
	r.fallbacks.WithLabelValues(provider).Inc()
}

// PoolFailed counts a failed pool.
func (r *Recorder) PoolFailed(source string) {
	r.poolFailures.WithLabelValues(source).Inc()
}
