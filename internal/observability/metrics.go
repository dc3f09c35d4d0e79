// Package observability exposes Prometheus metrics for the job engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsSubmitted counts jobs accepted by the engine, including regenerations.
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planforge_jobs_submitted_total",
		Help: "Number of analysis jobs submitted.",
	})

	// JobsFinished counts jobs reaching a terminal state, by outcome.
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_jobs_finished_total",
		Help: "Number of analysis jobs reaching a terminal state.",
	}, []string{"status"})

	// PipelineDuration observes end-to-end pipeline execution time.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planforge_pipeline_duration_seconds",
		Help:    "Decision pipeline execution time.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
