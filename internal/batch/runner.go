// Package batch provides the batching driver used by feature extraction,
// refinement and scoring. It partitions an input into contiguous slices,
// applies a per-slice function and concatenates the results in input order.
// Batch size affects throughput only; the concatenated output is identical
// for every valid batch size.
package batch

import (
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// NumBatches returns ceil(n / batchSize) for positive inputs.
func NumBatches(n, batchSize int) int {
	if n <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}

// Run partitions items into contiguous, non-overlapping slices of at most
// batchSize elements, applies fn to each slice and concatenates the results
// in input order. The final slice may be shorter than batchSize. If fn fails
// for any slice the whole run aborts and the error reports the failing batch
// index; no partial results are returned.
func Run[In, Out any](items []In, batchSize int, fn func([]In) ([]Out, error)) ([]Out, error) {
	if batchSize <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidBatchSize, errors.ErrInvalidBatchSize.Error())
	}

	out := make([]Out, 0, len(items))
	for i := 0; i < NumBatches(len(items), batchSize); i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		result, err := fn(items[start:end])
		if err != nil {
			return nil, errors.NewBatchError(i, err)
		}
		out = append(out, result...)
	}
	return out, nil
}

// RunSeries applies fn over contiguous sub-batches of b and concatenates the
// resulting batches along the sample axis. Same contract as Run.
func RunSeries(b *models.TimeSeriesBatch, batchSize int, fn func(*models.TimeSeriesBatch) (*models.TimeSeriesBatch, error)) (*models.TimeSeriesBatch, error) {
	if batchSize <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidBatchSize, errors.ErrInvalidBatchSize.Error())
	}

	parts := make([]*models.TimeSeriesBatch, 0, NumBatches(b.Len(), batchSize))
	for i := 0; i < NumBatches(b.Len(), batchSize); i++ {
		start := i * batchSize
		end := start + batchSize
		if end > b.Len() {
			end = b.Len()
		}

		part, err := fn(b.Slice(start, end))
		if err != nil {
			return nil, errors.NewBatchError(i, err)
		}
		parts = append(parts, part)
	}
	return models.ConcatBatches(parts...)
}

// RunFeatures applies a feature extraction fn over contiguous sub-batches of
// b and concatenates the resulting feature sets row-wise. Same contract as
// Run.
func RunFeatures(b *models.TimeSeriesBatch, batchSize int, fn func(*models.TimeSeriesBatch) (*models.FeatureSet, error)) (*models.FeatureSet, error) {
	if batchSize <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidBatchSize, errors.ErrInvalidBatchSize.Error())
	}

	parts := make([]*models.FeatureSet, 0, NumBatches(b.Len(), batchSize))
	for i := 0; i < NumBatches(b.Len(), batchSize); i++ {
		start := i * batchSize
		end := start + batchSize
		if end > b.Len() {
			end = b.Len()
		}

		part, err := fn(b.Slice(start, end))
		if err != nil {
			return nil, errors.NewBatchError(i, err)
		}
		parts = append(parts, part)
	}
	return models.ConcatFeatureSets(parts...)
}
