// Package telemetry provides best-effort sinks for evaluation diagnostics:
// structured log output, rendered plot images and Prometheus gauges. Sink
// failures are reported to the caller for logging but never abort scoring.
package telemetry

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

// LogSink emits every telemetry call as a structured log entry.
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a log-backed telemetry sink.
func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogSink{logger: logger}
}

// LogScalar implements interfaces.TelemetrySink.
func (s *LogSink) LogScalar(name string, value float64) error {
	s.logger.WithFields(logrus.Fields{
		"metric": name,
		"value":  value,
	}).Info("Telemetry scalar")
	return nil
}

// LogScatter implements interfaces.TelemetrySink.
func (s *LogSink) LogScatter(name string, series []interfaces.ScatterSeries) error {
	fields := logrus.Fields{"diagnostic": name}
	for _, sr := range series {
		fields[sr.Label] = len(sr.Points)
	}
	s.logger.WithFields(fields).Debug("Telemetry scatter")
	return nil
}

// LogSeriesOverlay implements interfaces.TelemetrySink.
func (s *LogSink) LogSeriesOverlay(name string, top, bottom *models.TimeSeriesBatch) error {
	s.logger.WithFields(logrus.Fields{
		"diagnostic": name,
		"top":        top.Len(),
		"bottom":     bottom.Len(),
	}).Debug("Telemetry series overlay")
	return nil
}

// Close implements interfaces.TelemetrySink.
func (s *LogSink) Close() error {
	return nil
}
