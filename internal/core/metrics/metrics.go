// Package metrics holds the Prometheus collectors of ParkWatch.
//
// Every method is safe on a nil *Metrics, so components take an optional
// collector set without guarding each call site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parkwatch"

// Save outcomes reported by ConditionSave.
const (
	SaveOK      = "saved"
	SaveInvalid = "invalid"
	SaveError   = "error"
)

// Metrics is the registry and collectors shared by both APIs.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	conditionSaves *prometheus.CounterVec
	evaluations    prometheus.Counter
	fieldLevels    *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

// New creates collectors on a private registry, together with the Go
// runtime and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Admin API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		conditionSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "condition_saves_total",
			Help:      "Bulk condition replaces by outcome.",
		}, []string{"result"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "EvaluateReadings calls that produced a result.",
		}),
		fieldLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_levels_total",
			Help:      "Evaluated field levels; coercion failures report level \"\".",
		}, []string{"level"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by entry kind and result.",
		}, []string{"kind", "result"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.conditionSaves,
		m.evaluations,
		m.fieldLevels,
		m.cacheLookups,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one admin API request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ConditionSave records the outcome of a bulk replace.
func (m *Metrics) ConditionSave(result string) {
	if m == nil {
		return
	}
	m.conditionSaves.WithLabelValues(result).Inc()
}

// Evaluation records one evaluated batch and the level of each field.
func (m *Metrics) Evaluation(levels []string) {
	if m == nil {
		return
	}
	m.evaluations.Inc()
	for _, l := range levels {
		m.fieldLevels.WithLabelValues(l).Inc()
	}
}

// CacheLookup implements cache.Recorder.
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}
