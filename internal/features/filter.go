// Package features hosts the pluggable feature extractors and the outlier
// filter applied to their output before any distance computation.
package features

import (
	"math"

	"github.com/inferloop/tseval/pkg/models"
)

// RemoveOutliers drops every feature vector containing a non-finite value in
// any dimension. Surviving rows keep their original relative order. The
// filter is idempotent: filtering an already-filtered set is a no-op.
func RemoveOutliers(s *models.FeatureSet) *models.FeatureSet {
	kept := make([][]float64, 0, s.Len())
	for _, v := range s.Vectors() {
		if rowFinite(v) {
			kept = append(kept, v)
		}
	}

	// Extractors guarantee uniform dimensionality, so reconstruction from a
	// row subset cannot fail.
	filtered, _ := models.NewFeatureSet(kept)
	return filtered
}

func rowFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
