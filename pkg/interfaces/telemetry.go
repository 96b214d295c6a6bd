package interfaces

import (
	"github.com/inferloop/tseval/pkg/models"
)

// ScatterSeries is one labeled point cloud in a scatter diagnostic.
type ScatterSeries struct {
	Label  string
	Points [][2]float64
}

// TelemetrySink accepts named scalar and image logging calls. Sinks are
// best-effort collaborators: callers log sink errors and continue, so a
// failing sink never aborts scoring.
type TelemetrySink interface {
	// LogScalar records a named scalar (e.g. a score)
	LogScalar(name string, value float64) error

	// LogScatter records a named 2-D scatter diagnostic (e.g. a PCA
	// projection of real vs generated features)
	LogScatter(name string, series []ScatterSeries) error

	// LogSeriesOverlay records an overlay comparison of two sample batches
	LogSeriesOverlay(name string, top, bottom *models.TimeSeriesBatch) error

	// Close releases sink resources
	Close() error
}
