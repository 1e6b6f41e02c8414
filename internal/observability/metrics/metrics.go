package metrics

import "github.com/prometheus/client_golang/prometheus"

// QueryMetrics exposes counters/histograms for the query protocol.
type QueryMetrics struct {
	queriesTotal   *prometheus.CounterVec
	backendTotal   *prometheus.CounterVec
	backendLatency prometheus.Histogram
	llmTotal       *prometheus.CounterVec
	extractions    *prometheus.CounterVec
}

func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	m := &QueryMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientsearch",
			Subsystem: "assistant",
			Name:      "queries_total",
			Help:      "Total processed queries by protocol outcome",
		}, []string{"outcome"}),
		backendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientsearch",
			Subsystem: "assistant",
			Name:      "backend_calls_total",
			Help:      "Total record store searches by status",
		}, []string{"status"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "patientsearch",
			Subsystem: "assistant",
			Name:      "backend_latency_seconds",
			Help:      "Latency of record store searches",
			Buckets:   prometheus.DefBuckets,
		}),
		llmTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientsearch",
			Subsystem: "assistant",
			Name:      "llm_requests_total",
			Help:      "Total LLM completions by turn and status",
		}, []string{"turn", "status"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patientsearch",
			Subsystem: "assistant",
			Name:      "extractions_total",
			Help:      "Total filter extractions by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.backendTotal, m.backendLatency, m.llmTotal, m.extractions)
	return m
}

// ObserveQuery counts a finished query. Outcome is one of direct, answered,
// table, error.
func (m *QueryMetrics) ObserveQuery(outcome string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(outcome).Inc()
}

// ObserveBackend records one record store call. Status is ok, error or timeout.
func (m *QueryMetrics) ObserveBackend(status string, seconds float64) {
	if m == nil {
		return
	}
	m.backendTotal.WithLabelValues(status).Inc()
	m.backendLatency.Observe(seconds)
}

func (m *QueryMetrics) ObserveLLM(turn, status string) {
	if m == nil {
		return
	}
	m.llmTotal.WithLabelValues(turn, status).Inc()
}

// ObserveExtraction counts a filter extraction by source (manual, llm, fallback).
func (m *QueryMetrics) ObserveExtraction(source string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(source).Inc()
}
