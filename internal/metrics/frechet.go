package metrics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/tseval/internal/features"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// ridge is added to covariance diagonals before matrix square roots to keep
// near-singular empirical covariances inside the PSD cone.
const ridge = 1e-10

// FrechetDistance computes the closed-form Fréchet distance between the
// Gaussian approximations of two feature distributions:
//
//	||mu_a - mu_b||^2 + tr(S_a + S_b - 2 (S_a S_b)^{1/2})
//
// Both sets are outlier-filtered first; at least 2 finite rows must survive
// in each, otherwise the covariance is undefined and an insufficient-data
// error is returned. The result is clamped at zero against floating-point
// round-off.
func (c *Calculator) FrechetDistance(a, b *models.FeatureSet) (float64, error) {
	fa := features.RemoveOutliers(a)
	fb := features.RemoveOutliers(b)

	if fa.Len() < 2 || fb.Len() < 2 {
		return 0, errors.NewInsufficientDataError(
			fmt.Sprintf("distance needs at least 2 finite feature rows per set, got %d and %d after filtering",
				fa.Len(), fb.Len()))
	}
	if fa.Dim() != fb.Dim() {
		return 0, errors.NewDimensionMismatchError(
			fmt.Sprintf("feature sets have dimensions %d and %d", fa.Dim(), fb.Dim()))
	}

	muA, covA := meanCovariance(fa)
	muB, covB := meanCovariance(fb)

	meanTerm := 0.0
	for i := range muA {
		d := muA[i] - muB[i]
		meanTerm += d * d
	}

	crossTrace, err := sqrtProductTrace(covA, covB)
	if err != nil {
		return 0, err
	}

	fid := meanTerm + trace(covA) + trace(covB) - 2*crossTrace
	if fid < 0 {
		fid = 0
	}

	c.logger.WithFields(logrus.Fields{
		"rows_a":   fa.Len(),
		"rows_b":   fb.Len(),
		"dim":      fa.Dim(),
		"distance": fid,
	}).Debug("Computed Frechet distance")

	return fid, nil
}

// meanCovariance estimates the per-dimension mean and the covariance matrix
// of a feature set.
func meanCovariance(s *models.FeatureSet) ([]float64, *mat.SymDense) {
	n, d := s.Len(), s.Dim()

	flat := make([]float64, 0, n*d)
	for _, v := range s.Vectors() {
		flat = append(flat, v...)
	}
	x := mat.NewDense(n, d, flat)

	mean := make([]float64, d)
	for j := 0; j < d; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, x, nil)
	return mean, cov
}

// sqrtProductTrace returns tr((A B)^{1/2}) for PSD matrices A and B, via the
// eigenvalues of sqrt(A) B sqrt(A), which shares the spectrum of A B but is
// symmetric.
func sqrtProductTrace(covA, covB *mat.SymDense) (float64, error) {
	d := covA.SymmetricDim()

	ridged := mat.NewSymDense(d, nil)
	ridged.CopySym(covA)
	for i := 0; i < d; i++ {
		ridged.SetSym(i, i, ridged.At(i, i)+ridge)
	}

	var sqrtA mat.SymDense
	if err := sqrtA.PowPSD(ridged, 0.5); err != nil {
		return 0, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInternalError,
			"covariance square root failed")
	}

	var tmp, prod mat.Dense
	tmp.Mul(&sqrtA, covB)
	prod.Mul(&tmp, &sqrtA)

	// prod is symmetric up to round-off; symmetrize before factorizing.
	sym := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			sym.SetSym(i, j, 0.5*(prod.At(i, j)+prod.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return 0, errors.NewInternalError("eigendecomposition of covariance product failed")
	}

	sum := 0.0
	for _, v := range eig.Values(nil) {
		if v > 0 {
			sum += math.Sqrt(v)
		}
	}
	return sum, nil
}

func trace(s *mat.SymDense) float64 {
	sum := 0.0
	for i := 0; i < s.SymmetricDim(); i++ {
		sum += s.At(i, i)
	}
	return sum
}
