package telemetry

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

// MultiSink fans telemetry out to several sinks. A failing sub-sink is
// logged and skipped; the other sinks still receive the call and the fan-out
// itself never reports an error.
type MultiSink struct {
	sinks  []interfaces.TelemetrySink
	logger *logrus.Logger
}

// NewMultiSink creates a best-effort fan-out over the given sinks.
func NewMultiSink(logger *logrus.Logger, sinks ...interfaces.TelemetrySink) *MultiSink {
	if logger == nil {
		logger = logrus.New()
	}
	return &MultiSink{sinks: sinks, logger: logger}
}

// LogScalar implements interfaces.TelemetrySink.
func (m *MultiSink) LogScalar(name string, value float64) error {
	for _, s := range m.sinks {
		if err := s.LogScalar(name, value); err != nil {
			m.warn("scalar", name, err)
		}
	}
	return nil
}

// LogScatter implements interfaces.TelemetrySink.
func (m *MultiSink) LogScatter(name string, series []interfaces.ScatterSeries) error {
	for _, s := range m.sinks {
		if err := s.LogScatter(name, series); err != nil {
			m.warn("scatter", name, err)
		}
	}
	return nil
}

// LogSeriesOverlay implements interfaces.TelemetrySink.
func (m *MultiSink) LogSeriesOverlay(name string, top, bottom *models.TimeSeriesBatch) error {
	for _, s := range m.sinks {
		if err := s.LogSeriesOverlay(name, top, bottom); err != nil {
			m.warn("overlay", name, err)
		}
	}
	return nil
}

// Close implements interfaces.TelemetrySink.
func (m *MultiSink) Close() error {
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			m.warn("close", "", err)
		}
	}
	return nil
}

func (m *MultiSink) warn(kind, name string, err error) {
	m.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"name":  name,
		"error": err,
	}).Warn("Telemetry sink failed")
}

// NopSink discards all telemetry.
type NopSink struct{}

// LogScalar implements interfaces.TelemetrySink.
func (NopSink) LogScalar(string, float64) error { return nil }

// LogScatter implements interfaces.TelemetrySink.
func (NopSink) LogScatter(string, []interfaces.ScatterSeries) error { return nil }

// LogSeriesOverlay implements interfaces.TelemetrySink.
func (NopSink) LogSeriesOverlay(string, *models.TimeSeriesBatch, *models.TimeSeriesBatch) error {
	return nil
}

// Close implements interfaces.TelemetrySink.
func (NopSink) Close() error { return nil }
