package models

import (
	"fmt"
	"math"
)

// FeatureSet is an ordered collection of fixed-length feature vectors, one
// per input series. Insertion order matches the order of the series the
// vectors were extracted from.
type FeatureSet struct {
	vectors [][]float64
	dim     int
}

// NewFeatureSet builds a feature set from row vectors. Every vector must have
// the same dimensionality.
func NewFeatureSet(vectors [][]float64) (*FeatureSet, error) {
	if len(vectors) == 0 {
		return &FeatureSet{}, nil
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	return &FeatureSet{vectors: vectors, dim: dim}, nil
}

// Len returns the number of feature vectors.
func (s *FeatureSet) Len() int {
	return len(s.vectors)
}

// Dim returns the dimensionality shared by all vectors, 0 when empty.
func (s *FeatureSet) Dim() int {
	return s.dim
}

// Vector returns the i-th feature vector. Read-only view.
func (s *FeatureSet) Vector(i int) []float64 {
	return s.vectors[i]
}

// Vectors returns all feature vectors in insertion order. Read-only view.
func (s *FeatureSet) Vectors() [][]float64 {
	return s.vectors
}

// SliceRows returns the half-open row range [i, j) as a view sharing the
// underlying vectors.
func (s *FeatureSet) SliceRows(i, j int) *FeatureSet {
	return &FeatureSet{vectors: s.vectors[i:j], dim: s.dim}
}

// ConcatFeatureSets concatenates sets row-wise, preserving input order.
func ConcatFeatureSets(sets ...*FeatureSet) (*FeatureSet, error) {
	total := 0
	for _, s := range sets {
		total += s.Len()
	}
	vectors := make([][]float64, 0, total)
	for _, s := range sets {
		vectors = append(vectors, s.vectors...)
	}
	return NewFeatureSet(vectors)
}

// ClassProbabilityVector is a probability distribution over class labels
// produced by a classifier extractor's output head.
type ClassProbabilityVector []float64

// Validate checks that the vector is a proper probability distribution:
// all entries finite and non-negative, summing to 1 within tolerance.
func (p ClassProbabilityVector) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("empty probability vector")
	}
	sum := 0.0
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("entry %d is not finite", i)
		}
		if v < 0 {
			return fmt.Errorf("entry %d is negative: %v", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("probabilities sum to %v, expected 1", sum)
	}
	return nil
}
