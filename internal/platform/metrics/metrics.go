// Package metrics owns the prometheus collectors for the ingestion pipeline
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups collectors on a private registry
// a nil *Metrics is valid and records nothing
type Metrics struct {
	reg *prometheus.Registry

	webhooks            *prometheus.CounterVec
	attributionFailures *prometheus.CounterVec
	appFallbacks        *prometheus.CounterVec
	upserts             *prometheus.CounterVec
	identityRetries     prometheus.Counter
	identityConflicts   prometheus.Counter
	enqueues            *prometheus.CounterVec
	recomputes          *prometheus.CounterVec
	recomputeSeconds    prometheus.Histogram
	ingestSeconds       *prometheus.HistogramVec
}

// New registers all collectors under namespace
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reg: reg,
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "webhook", Name: "requests_total",
			Help: "Inbound webhooks by app and outcome.",
		}, []string{"app", "outcome"}),
		attributionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "webhook", Name: "attribution_failures_total",
			Help: "Attribution failures by reason.",
		}, []string{"reason"}),
		appFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "webhook", Name: "app_config_fallbacks_total",
			Help: "Webhooks parsed with the default app config.",
		}, []string{"app"}),
		upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "customers", Name: "upserts_total",
			Help: "Customer upserts by result.",
		}, []string{"result"}),
		identityRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "customers", Name: "conflict_retries_total",
			Help: "Uniqueness conflicts retried as fetch-then-update.",
		}),
		identityConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "customers", Name: "anonymous_id_conflicts_total",
			Help: "Anonymous ids already held by a different external id.",
		}),
		enqueues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hotscore", Name: "enqueues_total",
			Help: "Recompute requests published by outcome.",
		}, []string{"outcome"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hotscore", Name: "recomputes_total",
			Help: "Recompute attempts by outcome.",
		}, []string{"outcome"}),
		recomputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "hotscore", Name: "recompute_seconds",
			Help:    "Time spent loading, scoring and persisting one customer.",
			Buckets: prometheus.DefBuckets,
		}),
		ingestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "webhook", Name: "ingest_seconds",
			Help:    "Webhook ingestion latency by outcome.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.webhooks, m.attributionFailures, m.appFallbacks,
		m.upserts, m.identityRetries, m.identityConflicts,
		m.enqueues, m.recomputes, m.recomputeSeconds, m.ingestSeconds,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Webhook counts one inbound webhook and observes its latency
func (m *Metrics) Webhook(app, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(app, outcome).Inc()
	m.ingestSeconds.WithLabelValues(outcome).Observe(seconds)
}

// AttributionFailure counts one failure by reason
func (m *Metrics) AttributionFailure(reason string) {
	if m == nil {
		return
	}
	m.attributionFailures.WithLabelValues(reason).Inc()
}

// AppFallback counts a default config resolution
func (m *Metrics) AppFallback(app string) {
	if m == nil {
		return
	}
	m.appFallbacks.WithLabelValues(app).Inc()
}

// Upsert counts a customer upsert result: created, updated or promoted
func (m *Metrics) Upsert(result string) {
	if m == nil {
		return
	}
	m.upserts.WithLabelValues(result).Inc()
}

// IdentityRetry counts one conflict retry
func (m *Metrics) IdentityRetry() {
	if m == nil {
		return
	}
	m.identityRetries.Inc()
}

// IdentityConflict counts an anonymous id claimed by a second external id
func (m *Metrics) IdentityConflict() {
	if m == nil {
		return
	}
	m.identityConflicts.Inc()
}

// Enqueue counts a recompute publish
func (m *Metrics) Enqueue(outcome string) {
	if m == nil {
		return
	}
	m.enqueues.WithLabelValues(outcome).Inc()
}

// Recompute counts a recompute attempt: computed, skipped or failed
func (m *Metrics) Recompute(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(outcome).Inc()
	if outcome == "computed" {
		m.recomputeSeconds.Observe(seconds)
	}
}
