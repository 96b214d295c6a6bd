package features

import (
	"fmt"

	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/interfaces"
)

// FactoryConfig selects and parameterizes a feature extractor.
type FactoryConfig struct {
	Type          string `json:"type" yaml:"type"`
	Dataset       string `json:"dataset" yaml:"dataset"`
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir"`
	InputLength   int    `json:"input_length" yaml:"input_length"`
	NumKernels    int    `json:"num_kernels" yaml:"num_kernels"`
	KernelSeed    int64  `json:"kernel_seed" yaml:"kernel_seed"`
}

// NewExtractor builds the configured feature extractor. Unknown extractor
// types fail with a configuration error.
func NewExtractor(cfg FactoryConfig) (interfaces.FeatureExtractor, error) {
	switch cfg.Type {
	case constants.ExtractorSupervisedFCN:
		return NewFCNExtractor(cfg.CheckpointDir, cfg.Dataset)
	case constants.ExtractorRocket:
		numKernels := cfg.NumKernels
		if numKernels == 0 {
			numKernels = constants.DefaultRocketNumKernels
		}
		return NewRocketExtractor(cfg.InputLength, numKernels, cfg.KernelSeed)
	default:
		return nil, errors.NewConfigurationError(errors.CodeUnknownExtractor,
			errors.ErrUnknownExtractor.Error()).
			WithDetails(fmt.Sprintf("got %q, supported types are %q and %q",
				cfg.Type, constants.ExtractorSupervisedFCN, constants.ExtractorRocket))
	}
}
