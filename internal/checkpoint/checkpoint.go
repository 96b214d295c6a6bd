// Package checkpoint loads the pretrained model files an evaluation run
// depends on. Files are named <prefix>-<dataset>.ckpt and are read once at
// session construction; the encoding is gob and owned by this package.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
)

// ConvBlock holds the folded weights of one conv + batchnorm + relu block of
// the frozen classifier. Weights are laid out (out, in, kernel).
type ConvBlock struct {
	Weights [][][]float64
	Bias    []float64
}

// FCNWeights is the checkpoint payload of the frozen pretrained classifier.
// The penultimate (global-average-pooled) activation is the feature vector;
// the head maps it to class logits.
type FCNWeights struct {
	Dataset    string
	Blocks     []ConvBlock
	HeadWeight [][]float64 // (classes, embed)
	HeadBias   []float64
}

// DecoderWeights is the checkpoint payload of the multi-stage generative
// decoder: per-stage token codebooks plus the token state machine that
// drives sampling. One series is TokensPerSeries segments per stage, with
// per-stage decoded segments summed.
type DecoderWeights struct {
	Dataset         string
	SeriesLength    int
	TokensPerSeries int
	Stages          []DecoderStage
	Seed            int64
}

// DecoderStage is one frequency band of the decoder.
type DecoderStage struct {
	Codebook   [][]float64 // (tokens, segment length)
	Initial    []float64   // initial token distribution
	Transition [][]float64 // (tokens, tokens) row-stochastic
	// ClassInitial overrides Initial per class index for conditional sampling
	ClassInitial map[int][]float64
}

// EnhancerWeights is the checkpoint payload of the learned residual
// refinement module: a small per-channel conv producing a residual that is
// added back to the input, scaled by Alpha.
type EnhancerWeights struct {
	Dataset string
	Kernel  []float64
	Bias    float64
	Alpha   float64
}

// Path returns the checkpoint file path for a prefix and dataset identity.
func Path(dir, prefix, dataset string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, dataset, constants.CheckpointExtension))
}

// LoadFCN loads the frozen classifier checkpoint for a dataset identity.
func LoadFCN(dir, dataset string) (*FCNWeights, error) {
	var w FCNWeights
	if err := load(Path(dir, constants.CheckpointPrefixClassifier, dataset), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadDecoder loads the generative decoder checkpoint for a dataset identity.
func LoadDecoder(dir, dataset string) (*DecoderWeights, error) {
	var w DecoderWeights
	if err := load(Path(dir, constants.CheckpointPrefixDecoder, dataset), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadEnhancer loads the fidelity enhancer checkpoint for a dataset identity.
func LoadEnhancer(dir, dataset string) (*EnhancerWeights, error) {
	var w EnhancerWeights
	if err := load(Path(dir, constants.CheckpointPrefixEnhancer, dataset), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Save writes a checkpoint payload. Used by model export tooling and tests.
func Save(path string, payload interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeCheckpoint, errors.CodeInternalError, "failed to create checkpoint directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeCheckpoint, errors.CodeInternalError, "failed to create checkpoint file")
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(payload); err != nil {
		return errors.WrapError(err, errors.ErrorTypeCheckpoint, errors.CodeCheckpointCorrupt, "failed to encode checkpoint").WithContext("path", path)
	}
	return nil
}

func load(path string, payload interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewMissingCheckpointError(path)
		}
		return errors.WrapError(err, errors.ErrorTypeCheckpoint, errors.CodeInternalError, "failed to open checkpoint").WithContext("path", path)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(payload); err != nil {
		return errors.WrapError(errors.ErrCheckpointCorrupt, errors.ErrorTypeCheckpoint, errors.CodeCheckpointCorrupt,
			"failed to decode checkpoint").WithContext("path", path).WithDetails(err.Error())
	}
	return nil
}
