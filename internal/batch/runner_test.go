package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

func TestNumBatches(t *testing.T) {
	assert.Equal(t, 0, NumBatches(0, 8))
	assert.Equal(t, 1, NumBatches(1, 8))
	assert.Equal(t, 1, NumBatches(8, 8))
	assert.Equal(t, 2, NumBatches(9, 8))
	assert.Equal(t, 13, NumBatches(100, 8))
}

func TestRunPreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	double := func(batch []int) ([]int, error) {
		out := make([]int, len(batch))
		for i, v := range batch {
			out[i] = 2 * v
		}
		return out, nil
	}

	result, err := Run(items, 7, double)
	require.NoError(t, err)
	require.Len(t, result, 100)
	for i, v := range result {
		assert.Equal(t, 2*i, v)
	}
}

func TestRunBatchSizeInvariance(t *testing.T) {
	items := make([]float64, 53)
	for i := range items {
		items[i] = float64(i) * 0.5
	}

	square := func(batch []float64) ([]float64, error) {
		out := make([]float64, len(batch))
		for i, v := range batch {
			out[i] = v * v
		}
		return out, nil
	}

	reference, err := Run(items, 1, square)
	require.NoError(t, err)

	for _, batchSize := range []int{2, 3, 7, 16, 53, 100} {
		result, err := Run(items, batchSize, square)
		require.NoError(t, err)
		assert.Equal(t, reference, result, "batch size %d changed the result", batchSize)
	}
}

func TestRunInvalidBatchSize(t *testing.T) {
	for _, batchSize := range []int{0, -1} {
		_, err := Run([]int{1, 2, 3}, batchSize, func(b []int) ([]int, error) { return b, nil })
		require.Error(t, err)

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.ErrorTypeConfiguration, appErr.Type)
	}
}

func TestRunPropagatesFailureWithBatchIndex(t *testing.T) {
	items := make([]int, 30)

	boom := fmt.Errorf("boom")
	calls := 0
	fn := func(batch []int) ([]int, error) {
		if calls == 2 {
			return nil, boom
		}
		calls++
		return batch, nil
	}

	result, err := Run(items, 10, fn)
	require.Error(t, err)
	assert.Nil(t, result, "no partial results on failure")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrorTypeBatch, appErr.Type)
	assert.Equal(t, 2, appErr.Context["batch_index"])
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "boom", "cause message must survive in the rendered error")
}

func TestRunEmptyInput(t *testing.T) {
	called := false
	result, err := Run([]int{}, 4, func(b []int) ([]int, error) {
		called = true
		return b, nil
	})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.False(t, called)
}

func TestRunSeriesConcatenatesInOrder(t *testing.T) {
	rows := make([][]float64, 11)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i) + 1}
	}
	b, err := models.NewUnivariateBatch(rows)
	require.NoError(t, err)

	negate := func(part *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
		out := make([][]float64, part.Len())
		for i := 0; i < part.Len(); i++ {
			src := part.Sample(i)[0]
			row := make([]float64, len(src))
			for j, v := range src {
				row[j] = -v
			}
			out[i] = row
		}
		return models.NewUnivariateBatch(out)
	}

	result, err := RunSeries(b, 4, negate)
	require.NoError(t, err)
	require.Equal(t, 11, result.Len())
	for i := 0; i < result.Len(); i++ {
		assert.Equal(t, []float64{-float64(i), -(float64(i) + 1)}, result.Sample(i)[0])
	}
}

func TestRunFeaturesBatchSizeInvariance(t *testing.T) {
	rows := make([][]float64, 17)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(2 * i), float64(3 * i)}
	}
	b, err := models.NewUnivariateBatch(rows)
	require.NoError(t, err)

	meanMax := func(part *models.TimeSeriesBatch) (*models.FeatureSet, error) {
		vectors := make([][]float64, part.Len())
		for i := 0; i < part.Len(); i++ {
			series := part.Sample(i)[0]
			sum, max := 0.0, series[0]
			for _, v := range series {
				sum += v
				if v > max {
					max = v
				}
			}
			vectors[i] = []float64{sum / float64(len(series)), max}
		}
		return models.NewFeatureSet(vectors)
	}

	reference, err := RunFeatures(b, 17, meanMax)
	require.NoError(t, err)

	for _, batchSize := range []int{1, 2, 5, 16} {
		result, err := RunFeatures(b, batchSize, meanMax)
		require.NoError(t, err)
		assert.Equal(t, reference.Vectors(), result.Vectors())
	}
}
