// Package metrics holds the Prometheus collectors of the application.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AIRequests counts calls to the AI service by operation and outcome.
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_ai_requests_total",
		Help: "Total number of AI service calls by operation and outcome",
	}, []string{"operation", "outcome"}) // outcome: "ok" or "error"

	// AIRequestLatency tracks AI call latency.
	AIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lumina_ai_request_duration_seconds",
		Help:    "AI service call latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	// CategoryFallbacks counts saves where classification fell back to a fixed label.
	CategoryFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_category_fallbacks_total",
		Help: "Total number of entry saves that used the fallback category",
	})

	// Summaries counts report syntheses by result.
	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_summaries_total",
		Help: "Total number of summary generations by result",
	}, []string{"result"}) // result: "created", "empty_range", "service_error", "schema_error"

	// EntriesSaved counts entry saves by kind.
	EntriesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_entries_saved_total",
		Help: "Total number of entry saves by kind",
	}, []string{"kind"}) // kind: "created" or "updated"
)

// ObserveAI records one AI call that started at start.
func ObserveAI(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AIRequests.WithLabelValues(operation, outcome).Inc()
	AIRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
