package features

import (
	"fmt"
	"math"

	"github.com/inferloop/tseval/internal/checkpoint"
	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// FCNExtractor is the classifier feature extractor: a frozen pretrained
// fully-convolutional network loaded from a per-dataset checkpoint. The
// penultimate activation (global average pooling over the last conv block)
// is the feature vector; a separate linear head produces class
// probabilities. Weights are never mutated, so extraction is deterministic.
type FCNExtractor struct {
	weights *checkpoint.FCNWeights
}

// NewFCNExtractor loads the frozen classifier checkpoint for a dataset
// identity. It fails with a missing-checkpoint error when no checkpoint
// exists for the dataset.
func NewFCNExtractor(checkpointDir, dataset string) (*FCNExtractor, error) {
	w, err := checkpoint.LoadFCN(checkpointDir, dataset)
	if err != nil {
		return nil, err
	}
	return NewFCNExtractorFromWeights(w)
}

// NewFCNExtractorFromWeights wraps already-loaded classifier weights.
func NewFCNExtractorFromWeights(w *checkpoint.FCNWeights) (*FCNExtractor, error) {
	if len(w.Blocks) == 0 {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt, "classifier checkpoint has no conv blocks")
	}
	embed := len(w.Blocks[len(w.Blocks)-1].Bias)
	for i, row := range w.HeadWeight {
		if len(row) != embed {
			return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt,
				fmt.Sprintf("head row %d has %d inputs, embedding is %d", i, len(row), embed))
		}
	}
	if len(w.HeadBias) != len(w.HeadWeight) {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt, "head bias size does not match head weight rows")
	}
	return &FCNExtractor{weights: w}, nil
}

// Name implements interfaces.FeatureExtractor.
func (e *FCNExtractor) Name() string {
	return constants.ExtractorSupervisedFCN
}

// FeatureDim implements interfaces.FeatureExtractor.
func (e *FCNExtractor) FeatureDim() int {
	return len(e.weights.Blocks[len(e.weights.Blocks)-1].Bias)
}

// NumClasses implements interfaces.Classifier.
func (e *FCNExtractor) NumClasses() int {
	return len(e.weights.HeadBias)
}

// Extract returns the penultimate-layer embedding of every series.
func (e *FCNExtractor) Extract(batch *models.TimeSeriesBatch) (*models.FeatureSet, error) {
	vectors := make([][]float64, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		embed, err := e.embed(batch.Sample(i))
		if err != nil {
			return nil, err
		}
		vectors[i] = embed
	}
	return models.NewFeatureSet(vectors)
}

// Classify returns the softmax class distribution of every series.
func (e *FCNExtractor) Classify(batch *models.TimeSeriesBatch) ([]models.ClassProbabilityVector, error) {
	probs := make([]models.ClassProbabilityVector, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		embed, err := e.embed(batch.Sample(i))
		if err != nil {
			return nil, err
		}

		logits := make([]float64, len(e.weights.HeadBias))
		for c, row := range e.weights.HeadWeight {
			sum := e.weights.HeadBias[c]
			for j, w := range row {
				sum += w * embed[j]
			}
			logits[c] = sum
		}
		probs[i] = softmax(logits)
	}
	return probs, nil
}

// embed runs the conv stack on one sample (channels, length) and global
// average pools the final block.
func (e *FCNExtractor) embed(sample [][]float64) ([]float64, error) {
	act := sample
	for bi := range e.weights.Blocks {
		block := &e.weights.Blocks[bi]
		if len(block.Weights[0]) != len(act) {
			return nil, errors.NewConfigurationError(errors.CodeUnsupportedChannels,
				fmt.Sprintf("conv block %d expects %d input channels, got %d", bi, len(block.Weights[0]), len(act)))
		}
		act = convRelu(act, block)
	}

	embed := make([]float64, len(act))
	for c, channel := range act {
		sum := 0.0
		for _, v := range channel {
			sum += v
		}
		embed[c] = sum / float64(len(channel))
	}
	return embed, nil
}

// convRelu applies a same-padded 1-D convolution followed by ReLU.
func convRelu(in [][]float64, block *checkpoint.ConvBlock) [][]float64 {
	length := len(in[0])
	out := make([][]float64, len(block.Weights))
	for o, filters := range block.Weights {
		kernelLen := len(filters[0])
		pad := (kernelLen - 1) / 2

		row := make([]float64, length)
		for t := 0; t < length; t++ {
			sum := block.Bias[o]
			for c, kernel := range filters {
				for j, w := range kernel {
					idx := t + j - pad
					if idx >= 0 && idx < length {
						sum += w * in[c][idx]
					}
				}
			}
			if sum < 0 {
				sum = 0
			}
			row[t] = sum
		}
		out[o] = row
	}
	return out
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
