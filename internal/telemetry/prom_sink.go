package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

// PromSink exports telemetry scalars as Prometheus gauges and counts
// diagnostic events, for runs embedded in long-lived services.
type PromSink struct {
	registry *prometheus.Registry
	scores   *prometheus.GaugeVec
	events   *prometheus.CounterVec
}

// NewPromSink creates a Prometheus-backed telemetry sink with its own
// registry.
func NewPromSink() *PromSink {
	registry := prometheus.NewRegistry()

	scores := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tseval",
		Name:      "score",
		Help:      "Latest value of a named evaluation score",
	}, []string{"name"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tseval",
		Name:      "telemetry_events_total",
		Help:      "Telemetry events by kind",
	}, []string{"kind"})

	registry.MustRegister(scores, events)
	return &PromSink{registry: registry, scores: scores, events: events}
}

// Registry returns the sink's registry for mounting on an HTTP handler.
func (s *PromSink) Registry() *prometheus.Registry {
	return s.registry
}

// LogScalar implements interfaces.TelemetrySink.
func (s *PromSink) LogScalar(name string, value float64) error {
	s.scores.WithLabelValues(name).Set(value)
	s.events.WithLabelValues("scalar").Inc()
	return nil
}

// LogScatter implements interfaces.TelemetrySink.
func (s *PromSink) LogScatter(string, []interfaces.ScatterSeries) error {
	s.events.WithLabelValues("scatter").Inc()
	return nil
}

// LogSeriesOverlay implements interfaces.TelemetrySink.
func (s *PromSink) LogSeriesOverlay(string, *models.TimeSeriesBatch, *models.TimeSeriesBatch) error {
	s.events.WithLabelValues("overlay").Inc()
	return nil
}

// Close implements interfaces.TelemetrySink.
func (s *PromSink) Close() error {
	return nil
}
