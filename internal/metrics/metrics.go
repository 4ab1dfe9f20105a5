package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's Prometheus instruments around a private
// registry so tests can create isolated instances.
type Registry struct {
	reg          *prometheus.Registry
	DraftsLive   prometheus.Counter
	DraftsMock   prometheus.Counter
	ModelCalls   prometheus.Counter
	ModelRetries prometheus.Counter
	JobsFailed   prometheus.Counter
	ModelLatency prometheus.Histogram
	JobsInflight prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	draftsLive := prometheus.NewCounter(prometheus.CounterOpts{Name: "snaplist_drafts_live_total"})
	draftsMock := prometheus.NewCounter(prometheus.CounterOpts{Name: "snaplist_drafts_mock_total"})
	modelCalls := prometheus.NewCounter(prometheus.CounterOpts{Name: "snaplist_model_calls_total"})
	modelRetries := prometheus.NewCounter(prometheus.CounterOpts{Name: "snaplist_model_retries_total"})
	jobsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "snaplist_jobs_failed_total"})
	modelLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snaplist_model_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	jobsInflight := prometheus.NewGauge(prometheus.GaugeOpts{Name: "snaplist_jobs_inflight"})

	r.MustRegister(draftsLive, draftsMock, modelCalls, modelRetries, jobsFailed, modelLatency, jobsInflight)
	return &Registry{
		reg:          r,
		DraftsLive:   draftsLive,
		DraftsMock:   draftsMock,
		ModelCalls:   modelCalls,
		ModelRetries: modelRetries,
		JobsFailed:   jobsFailed,
		ModelLatency: modelLatency,
		JobsInflight: jobsInflight,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
