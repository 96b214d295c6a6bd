package constants

// Feature extractor types
const (
	ExtractorSupervisedFCN = "supervised_fcn"
	ExtractorRocket        = "rocket"
)

// Checkpoint file prefixes; files are named <prefix>-<dataset>.ckpt
const (
	CheckpointPrefixDecoder    = "stage2"
	CheckpointPrefixEnhancer   = "fidelity_enhancer"
	CheckpointPrefixClassifier = "supervised_fcn"

	CheckpointExtension = ".ckpt"
)

// Evaluation defaults
const (
	DefaultBatchSize        = 32
	DefaultRocketNumKernels = 1000
	DefaultInceptionSplits  = 10
	DefaultRocketSeed       = 42
)
