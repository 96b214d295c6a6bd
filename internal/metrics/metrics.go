// Package metrics computes the distributional-distance scores used to grade
// generated data against real data: a Fréchet-style distance between Gaussian
// approximations of two feature distributions and an Inception-Score analogue
// over classifier probability vectors.
package metrics

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/tseval/pkg/constants"
)

// Calculator computes distribution distance and concentration scores.
type Calculator struct {
	splits int
	logger *logrus.Logger
}

// NewCalculator creates a score calculator. splits is the number of
// contiguous sub-sample groups used to estimate inception-score variability;
// non-positive values select the default of 10 splits.
func NewCalculator(splits int, logger *logrus.Logger) *Calculator {
	if splits <= 0 {
		splits = constants.DefaultInceptionSplits
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{splits: splits, logger: logger}
}
