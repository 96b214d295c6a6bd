package metrics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// probEps floors marginal probabilities inside the KL term so empty classes
// do not produce infinities.
const probEps = 1e-12

// InceptionScore computes the distribution-concentration score: the
// exponential of the average KL divergence between each sample's class
// distribution and the marginal distribution of its group. Variability is
// estimated by partitioning the input into contiguous groups (10 by default,
// capped at the sample count) and taking the mean and standard deviation of
// the per-group scores. The input order is preserved when forming groups.
func (c *Calculator) InceptionScore(probs []models.ClassProbabilityVector) (mean, std float64, err error) {
	if len(probs) == 0 {
		return 0, 0, errors.NewInsufficientDataError("inception score needs at least one probability vector")
	}

	numClasses := len(probs[0])
	for i, p := range probs {
		if len(p) != numClasses {
			return 0, 0, errors.NewDimensionMismatchError(
				fmt.Sprintf("probability vector %d has %d classes, expected %d", i, len(p), numClasses))
		}
		if vErr := p.Validate(); vErr != nil {
			return 0, 0, errors.WrapError(vErr, errors.ErrorTypeData, errors.CodeInvalidProbability,
				fmt.Sprintf("probability vector %d is not a distribution", i))
		}
	}

	splits := c.splits
	if splits > len(probs) {
		splits = len(probs)
	}

	scores := make([]float64, splits)
	for s := 0; s < splits; s++ {
		start := s * len(probs) / splits
		end := (s + 1) * len(probs) / splits
		scores[s] = groupScore(probs[start:end], numClasses)
	}

	if splits == 1 {
		mean, std = scores[0], 0
	} else {
		mean, std = stat.MeanStdDev(scores, nil)
	}

	c.logger.WithFields(logrus.Fields{
		"samples": len(probs),
		"splits":  splits,
		"score":   mean,
		"std":     std,
	}).Debug("Computed inception score")

	return mean, std, nil
}

// groupScore is exp(mean KL(p || marginal)) over one group.
func groupScore(group []models.ClassProbabilityVector, numClasses int) float64 {
	marginal := make([]float64, numClasses)
	for _, p := range group {
		for j, v := range p {
			marginal[j] += v
		}
	}
	for j := range marginal {
		marginal[j] /= float64(len(group))
		if marginal[j] < probEps {
			marginal[j] = probEps
		}
	}

	klSum := 0.0
	for _, p := range group {
		for j, v := range p {
			if v > 0 {
				klSum += v * math.Log(v/marginal[j])
			}
		}
	}
	return math.Exp(klSum / float64(len(group)))
}
