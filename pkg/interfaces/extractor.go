package interfaces

import (
	"github.com/inferloop/tseval/pkg/models"
)

// FeatureExtractor maps a batch of raw time series to fixed-length feature
// vectors. Implementations are deterministic: the same batch always yields
// the same feature set.
type FeatureExtractor interface {
	// Name returns the extractor type identifier (e.g. "rocket")
	Name() string

	// FeatureDim returns the dimensionality of produced feature vectors
	FeatureDim() int

	// Extract computes one feature vector per series, preserving input order
	Extract(batch *models.TimeSeriesBatch) (*models.FeatureSet, error)
}

// Classifier extends FeatureExtractor with a class-probability output head.
// Only checkpoint-backed classifier extractors implement it.
type Classifier interface {
	FeatureExtractor

	// NumClasses returns the size of the probability vectors
	NumClasses() int

	// Classify returns one probability distribution over class labels per
	// series, preserving input order
	Classify(batch *models.TimeSeriesBatch) ([]models.ClassProbabilityVector, error)
}
