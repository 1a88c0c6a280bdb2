package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"tac_codec/internal/codec"
)

const namespace = "tac_codec"

// Metrics holds the Prometheus counters and histograms for conversions.
type Metrics struct {
	Parses              *prometheus.CounterVec // labels: kind, status
	Issues              *prometheus.CounterVec // labels: kind
	SerializationErrors *prometheus.CounterVec // labels: kind
	ParseDuration       prometheus.Histogram

	// Ingest metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced *prometheus.CounterVec // labels: sink={nats,kafka}
	StoreErrors      prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered, which tests use to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Parsed reports by kind and conversion status.",
		}, []string{"kind", "status"}),
		Issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Conversion issues by issue kind.",
		}, []string{"kind"}),
		SerializationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serialization_errors_total",
			Help:      "Failed serializations by report kind.",
		}, []string{"kind"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent lexing and parsing one report.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Raw report messages received from NATS.",
		}),
		MessagesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Parsed report messages published by sink.",
		}, []string{"sink"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Reports that failed to be archived.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Parse cache lookups by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Parses,
			m.Issues,
			m.SerializationErrors,
			m.ParseDuration,
			m.MessagesConsumed,
			m.MessagesProduced,
			m.StoreErrors,
			m.CacheLookups,
		)
	}
	return m
}

// ObserveReport counts a parse outcome and its issues.
func (m *Metrics) ObserveReport(r *codec.Report) {
	if m == nil || r == nil {
		return
	}
	kind := string(r.Kind)
	if kind == "" {
		kind = "UNKNOWN"
	}
	m.Parses.WithLabelValues(kind, string(r.Status)).Inc()
	for _, is := range r.Issues {
		m.Issues.WithLabelValues(string(is.Kind)).Inc()
	}
}
