package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

// boundsPad widens plot axis limits by 2% so boundary points stay visible.
const boundsPad = 0.02

// PlotSink renders scatter and overlay diagnostics to PNG files in an output
// directory. Scalars are ignored. When axis bounds are set, every scatter
// shares the same frame, which keeps successive projections comparable.
type PlotSink struct {
	dir    string
	bounds *[4]float64 // xmin, xmax, ymin, ymax
	// overlayLimit caps the number of series drawn per overlay half
	overlayLimit int
}

// NewPlotSink creates a plot sink writing into dir.
func NewPlotSink(dir string) (*PlotSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PlotSink{dir: dir, overlayLimit: 200}, nil
}

// SetScatterBounds pins the axis limits of all subsequent scatter plots.
func (s *PlotSink) SetScatterBounds(xmin, xmax, ymin, ymax float64) {
	s.bounds = &[4]float64{xmin, xmax, ymin, ymax}
}

// LogScalar implements interfaces.TelemetrySink. Scalars have no image form.
func (s *PlotSink) LogScalar(string, float64) error {
	return nil
}

// LogScatter implements interfaces.TelemetrySink.
func (s *PlotSink) LogScatter(name string, series []interfaces.ScatterSeries) error {
	p := plot.New()
	p.Title.Text = name

	for i, sr := range series {
		xys := make(plotter.XYs, len(sr.Points))
		for j, pt := range sr.Points {
			xys[j].X, xys[j].Y = pt[0], pt[1]
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter %q: %w", sr.Label, err)
		}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(scatter)
		p.Legend.Add(sr.Label, scatter)
	}

	if s.bounds != nil {
		xpad := (s.bounds[1] - s.bounds[0]) * boundsPad
		ypad := (s.bounds[3] - s.bounds[2]) * boundsPad
		p.X.Min, p.X.Max = s.bounds[0]-xpad, s.bounds[1]+xpad
		p.Y.Min, p.Y.Max = s.bounds[2]-ypad, s.bounds[3]+ypad
	}

	return p.Save(4*vg.Inch, 4*vg.Inch, s.path(name))
}

// LogSeriesOverlay implements interfaces.TelemetrySink.
func (s *PlotSink) LogSeriesOverlay(name string, top, bottom *models.TimeSeriesBatch) error {
	p := plot.New()
	p.Title.Text = name

	for half, batch := range []*models.TimeSeriesBatch{top, bottom} {
		n := batch.Len()
		if n > s.overlayLimit {
			n = s.overlayLimit
		}
		for i := 0; i < n; i++ {
			values := batch.Sample(i)[0]
			xys := make(plotter.XYs, len(values))
			for j, v := range values {
				xys[j].X, xys[j].Y = float64(j), v
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("overlay line: %w", err)
			}
			line.LineStyle.Color = plotutil.Color(half)
			p.Add(line)
		}
	}

	return p.Save(4*vg.Inch, 4*vg.Inch, s.path(name))
}

// Close implements interfaces.TelemetrySink.
func (s *PlotSink) Close() error {
	return nil
}

func (s *PlotSink) path(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return filepath.Join(s.dir, safe+".png")
}
