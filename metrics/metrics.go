package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hikiquest"

// Metrics exposes Prometheus collectors for quest and intake activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	generations       *prometheus.CounterVec
	narrativeFailures *prometheus.CounterVec
	narrativeLatency  prometheus.Histogram
	completions       *prometheus.CounterVec
	intakeAnswers     prometheus.Counter
	narratorHealthy   prometheus.Gauge
}

// New registers all collectors with a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the collectors with reg. Tests pass their own
// registry to read values back.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quest",
			Name:      "generations_total",
			Help:      "Quest sets generated, by source and stage.",
		}, []string{"source", "stage"}),
		narrativeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "narrative",
			Name:      "failures_total",
			Help:      "Narrative collaborator failures that triggered the local fallback.",
		}, []string{"reason"}),
		narrativeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "narrative",
			Name:      "request_duration_seconds",
			Help:      "Latency of narrative collaborator calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quest",
			Name:      "completions_total",
			Help:      "Quests marked complete, by stage.",
		}, []string{"stage"}),
		intakeAnswers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "answers_total",
			Help:      "Intake answers recorded.",
		}),
		narratorHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "narrative",
			Name:      "healthy",
			Help:      "1 when the last narrative probe succeeded.",
		}),
	}
	reg.MustRegister(m.generations, m.narrativeFailures, m.narrativeLatency,
		m.completions, m.intakeAnswers, m.narratorHealthy)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Generation(source, stage string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(source, stage).Inc()
}

func (m *Metrics) NarrativeFailure(reason string) {
	if m == nil {
		return
	}
	m.narrativeFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) NarrativeLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.narrativeLatency.Observe(d.Seconds())
}

func (m *Metrics) Completion(stage string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(stage).Inc()
}

func (m *Metrics) IntakeAnswer() {
	if m == nil {
		return
	}
	m.intakeAnswers.Inc()
}

func (m *Metrics) NarratorHealthy(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.narratorHealthy.Set(1)
	} else {
		m.narratorHealthy.Set(0)
	}
}
