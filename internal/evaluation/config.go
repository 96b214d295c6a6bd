package evaluation

import (
	"fmt"

	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
)

// Config contains the evaluation session configuration.
type Config struct {
	// Dataset is the dataset identity used for corpus and checkpoint lookup
	Dataset string `json:"dataset" yaml:"dataset"`
	// BatchSize drives every batched computation in the session
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// FeatureExtractor selects the extractor type: supervised_fcn or rocket
	FeatureExtractor string `json:"feature_extractor" yaml:"feature_extractor"`
	// RocketNumKernels is the kernel bank size of the rocket extractor
	RocketNumKernels int `json:"rocket_num_kernels" yaml:"rocket_num_kernels"`
	// RocketKernelSeed fixes the kernel bank generation
	RocketKernelSeed int64 `json:"rocket_kernel_seed" yaml:"rocket_kernel_seed"`
	// InceptionSplits is the sub-sample group count of the concentration score
	InceptionSplits int `json:"inception_splits" yaml:"inception_splits"`
	// UseFidelityEnhancer enables the learned refinement module
	UseFidelityEnhancer bool `json:"use_fidelity_enhancer" yaml:"use_fidelity_enhancer"`
	// UseCustomDataset bypasses dataset-identity corpus lookup
	UseCustomDataset bool `json:"use_custom_dataset" yaml:"use_custom_dataset"`
	// DataScaling z-normalizes the corpus with train-split moments
	DataScaling bool `json:"data_scaling" yaml:"data_scaling"`
	// CheckpointDir holds the pretrained model files
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir"`
}

// DefaultConfig returns the default evaluation configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        constants.DefaultBatchSize,
		FeatureExtractor: constants.ExtractorRocket,
		RocketNumKernels: constants.DefaultRocketNumKernels,
		RocketKernelSeed: constants.DefaultRocketSeed,
		InceptionSplits:  constants.DefaultInceptionSplits,
		DataScaling:      true,
		CheckpointDir:    "saved_models",
	}
}

// Validate checks the configuration, returning a configuration error on the
// first violation.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.NewConfigurationError(errors.CodeInvalidBatchSize,
			fmt.Sprintf("evaluation.batch_size must be positive, got %d", c.BatchSize))
	}
	if c.FeatureExtractor != constants.ExtractorSupervisedFCN && c.FeatureExtractor != constants.ExtractorRocket {
		return errors.NewConfigurationError(errors.CodeUnknownExtractor,
			fmt.Sprintf("unknown feature extractor type %q", c.FeatureExtractor))
	}
	if c.Dataset == "" && !c.UseCustomDataset {
		return errors.WrapError(errors.ErrMissingConfiguration, errors.ErrorTypeConfiguration,
			errors.CodeMissingField, "dataset is required unless a custom dataset is used")
	}
	if c.RocketNumKernels < 0 {
		return errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("rocket_num_kernels must not be negative, got %d", c.RocketNumKernels))
	}
	return nil
}
