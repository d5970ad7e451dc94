package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so tests can create metrics freely.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	// Engine metrics
	EventsProcessed    *prometheus.CounterVec
	EventDuration      *prometheus.HistogramVec
	RulesEvaluated     *prometheus.CounterVec
	ConditionsDegraded prometheus.Counter
	ActionsDispatched  *prometheus.CounterVec
	ActionDuration     *prometheus.HistogramVec

	// Cache metrics
	RuleCacheHits   prometheus.Counter
	RuleCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		EventsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_events_processed_total",
				Help: "Total number of domain events processed by the rule engine",
			},
			[]string{"trigger_type", "result"},
		),
		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_event_duration_seconds",
				Help:    "Time taken to process a domain event",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger_type"},
		),
		RulesEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_rules_evaluated_total",
				Help: "Total number of rule evaluations by outcome",
			},
			[]string{"trigger_type", "matched"},
		),
		ConditionsDegraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_conditions_degraded_total",
				Help: "Conditions that could not be meaningfully evaluated and were treated as false",
			},
		),
		ActionsDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_actions_dispatched_total",
				Help: "Total number of action dispatches by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_action_duration_seconds",
				Help:    "Time taken by a single action handler invocation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		RuleCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rule_cache_hits_total",
				Help: "Active-rule cache hits",
			},
		),
		RuleCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rule_cache_misses_total",
				Help: "Active-rule cache misses",
			},
		),
	}
}

// Handler returns the HTTP handler serving this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
