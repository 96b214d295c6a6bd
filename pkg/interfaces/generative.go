package interfaces

import (
	"context"

	"github.com/inferloop/tseval/pkg/models"
)

// NoClass marks unconditional sampling in place of a class index.
const NoClass = -1

// Sampler is the generative collaborator: a pretrained multi-stage decoder
// treated as opaque. Its checkpoint format is owned by the implementation.
type Sampler interface {
	// Sample draws n synthetic series. classIndex is NoClass for
	// unconditional sampling and a training label for conditional sampling.
	Sample(ctx context.Context, kind models.SampleKind, n int, classIndex int) (*models.TimeSeriesBatch, error)

	// Reconstruct passes real series through the decoder's encode/decode
	// path and returns the reconstructions.
	Reconstruct(ctx context.Context, batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error)
}

// Refiner applies a learned residual refinement step to generated series
// before re-scoring. The no-op variant is selected at construction when
// refinement is disabled; callers never type-check at runtime.
type Refiner interface {
	// Refine returns a refined copy of the batch, same shape as the input
	Refine(batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error)

	// Active reports whether refinement actually changes its input
	Active() bool
}

// CorpusLoader loads the real train/test reference data for a dataset
// identity. A custom-dataset implementation may ignore the identity.
type CorpusLoader interface {
	// Load returns the reference corpus, z-scaled when scale is set
	Load(dataset string, scale bool) (*models.ReferenceCorpus, error)
}
