package features

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tseval/internal/checkpoint"
	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
)

// testFCNWeights builds a small deterministic classifier: two conv blocks and
// a three-class head.
func testFCNWeights(t *testing.T, inChannels int) *checkpoint.FCNWeights {
	t.Helper()
	rng := rand.New(rand.NewSource(11))

	block := func(out, in, kernel int) checkpoint.ConvBlock {
		weights := make([][][]float64, out)
		bias := make([]float64, out)
		for o := range weights {
			weights[o] = make([][]float64, in)
			for c := range weights[o] {
				row := make([]float64, kernel)
				for j := range row {
					row[j] = rng.NormFloat64() * 0.3
				}
				weights[o][c] = row
			}
			bias[o] = rng.NormFloat64() * 0.1
		}
		return checkpoint.ConvBlock{Weights: weights, Bias: bias}
	}

	const embed = 8
	head := make([][]float64, 3)
	headBias := make([]float64, 3)
	for c := range head {
		row := make([]float64, embed)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		head[c] = row
		headBias[c] = rng.NormFloat64() * 0.1
	}

	return &checkpoint.FCNWeights{
		Dataset:    "testset",
		Blocks:     []checkpoint.ConvBlock{block(4, inChannels, 7), block(embed, 4, 5)},
		HeadWeight: head,
		HeadBias:   headBias,
	}
}

func TestFCNExtractDeterministic(t *testing.T) {
	e, err := NewFCNExtractorFromWeights(testFCNWeights(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 8, e.FeatureDim())
	assert.Equal(t, 3, e.NumClasses())

	batch := sineBatch(t, 6, 48, 9)
	first, err := e.Extract(batch)
	require.NoError(t, err)
	second, err := e.Extract(batch)
	require.NoError(t, err)

	assert.Equal(t, first.Vectors(), second.Vectors())
	assert.Equal(t, 6, first.Len())
	assert.Equal(t, 8, first.Dim())
}

func TestFCNClassifyReturnsDistributions(t *testing.T) {
	e, err := NewFCNExtractorFromWeights(testFCNWeights(t, 1))
	require.NoError(t, err)

	probs, err := e.Classify(sineBatch(t, 4, 48, 10))
	require.NoError(t, err)
	require.Len(t, probs, 4)
	for _, p := range probs {
		assert.NoError(t, p.Validate())
		assert.Len(t, []float64(p), 3)
	}
}

func TestFCNChannelMismatch(t *testing.T) {
	e, err := NewFCNExtractorFromWeights(testFCNWeights(t, 2))
	require.NoError(t, err)

	_, err = e.Extract(sineBatch(t, 2, 48, 1))
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeUnsupportedChannels, appErr.Code)
}

func TestFCNCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	weights := testFCNWeights(t, 1)
	path := checkpoint.Path(dir, constants.CheckpointPrefixClassifier, "testset")
	require.NoError(t, checkpoint.Save(path, weights))
	require.Equal(t, filepath.Join(dir, "supervised_fcn-testset.ckpt"), path)

	e, err := NewFCNExtractor(dir, "testset")
	require.NoError(t, err)

	reference, err := NewFCNExtractorFromWeights(weights)
	require.NoError(t, err)

	batch := sineBatch(t, 3, 48, 4)
	got, err := e.Extract(batch)
	require.NoError(t, err)
	want, err := reference.Extract(batch)
	require.NoError(t, err)
	assert.Equal(t, want.Vectors(), got.Vectors())
}

func TestFCNMissingCheckpoint(t *testing.T) {
	_, err := NewFCNExtractor(t.TempDir(), "absent")
	require.Error(t, err)
	assert.True(t, errors.IsMissingCheckpoint(err))
}

func TestExtractorFactory(t *testing.T) {
	e, err := NewExtractor(FactoryConfig{Type: constants.ExtractorRocket, InputLength: 64, NumKernels: 20})
	require.NoError(t, err)
	assert.Equal(t, constants.ExtractorRocket, e.Name())
	assert.Equal(t, 40, e.FeatureDim())

	_, err = NewExtractor(FactoryConfig{Type: "wavelet"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeUnknownExtractor, appErr.Code)
}
