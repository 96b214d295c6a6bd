// Package projection provides the 2-D linear projection used for embedding
// diagnostics. A projector is fit once on reference features and reused
// read-only afterwards.
package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// Bounds are the axis limits of the fitted training projection, cached at
// fit time so later plots share a frame.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Projector is a 2-component PCA projection. Fit once, then Transform any
// number of feature sets; fitting again replaces the projection.
type Projector struct {
	mean       []float64
	components *mat.Dense // (dim, 2)
	bounds     Bounds
	fitted     bool
}

// NewProjector creates an unfitted projector.
func NewProjector() *Projector {
	return &Projector{}
}

// Fitted reports whether Fit has succeeded.
func (p *Projector) Fitted() bool {
	return p.fitted
}

// Bounds returns the axis bounds of the training projection.
func (p *Projector) Bounds() Bounds {
	return p.bounds
}

// Fit computes the top two principal directions of the feature set via a
// thin SVD of the centered data and caches the axis bounds of the training
// scores. The caller is expected to outlier-filter the set first.
func (p *Projector) Fit(s *models.FeatureSet) error {
	if s.Len() < 2 {
		return errors.NewInsufficientDataError(
			fmt.Sprintf("projector fit needs at least 2 feature rows, got %d", s.Len()))
	}
	if s.Dim() < 2 {
		return errors.NewDimensionMismatchError(
			fmt.Sprintf("projector needs at least 2 feature dimensions, got %d", s.Dim()))
	}

	n, d := s.Len(), s.Dim()
	mean := make([]float64, d)
	for _, v := range s.Vectors() {
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	centered := mat.NewDense(n, d, nil)
	for i, v := range s.Vectors() {
		for j, x := range v {
			centered.Set(i, j, x-mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return errors.NewInternalError("SVD of centered features failed")
	}

	var v mat.Dense
	svd.VTo(&v)

	components := mat.NewDense(d, 2, nil)
	for j := 0; j < d; j++ {
		components.Set(j, 0, v.At(j, 0))
		components.Set(j, 1, v.At(j, 1))
	}

	var scores mat.Dense
	scores.Mul(centered, components)

	bounds := Bounds{
		XMin: scores.At(0, 0), XMax: scores.At(0, 0),
		YMin: scores.At(0, 1), YMax: scores.At(0, 1),
	}
	for i := 1; i < n; i++ {
		x, y := scores.At(i, 0), scores.At(i, 1)
		if x < bounds.XMin {
			bounds.XMin = x
		}
		if x > bounds.XMax {
			bounds.XMax = x
		}
		if y < bounds.YMin {
			bounds.YMin = y
		}
		if y > bounds.YMax {
			bounds.YMax = y
		}
	}

	p.mean = mean
	p.components = components
	p.bounds = bounds
	p.fitted = true
	return nil
}

// Transform projects a feature set onto the fitted components, returning one
// (x, y) point per row in input order.
func (p *Projector) Transform(s *models.FeatureSet) ([][2]float64, error) {
	if !p.fitted {
		return nil, errors.NewInternalError("projector is not fitted")
	}
	if s.Len() > 0 && s.Dim() != len(p.mean) {
		return nil, errors.NewDimensionMismatchError(
			fmt.Sprintf("feature dimension %d does not match fitted dimension %d", s.Dim(), len(p.mean)))
	}

	points := make([][2]float64, s.Len())
	for i, v := range s.Vectors() {
		var x, y float64
		for j, val := range v {
			c := val - p.mean[j]
			x += c * p.components.At(j, 0)
			y += c * p.components.At(j, 1)
		}
		points[i] = [2]float64{x, y}
	}
	return points, nil
}
