package features

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/inferloop/tseval/pkg/constants"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

var rocketKernelLengths = []int{7, 9, 11}

type rocketKernel struct {
	weights  []float64
	length   int
	bias     float64
	dilation int
	padding  int
}

// RocketExtractor is the kernel-transform feature extractor: a fixed bank of
// random 1-D convolution kernels generated once at construction. Each kernel
// contributes two features per series, the maximum convolution response and
// the proportion of positive responses, so vectors have dimension
// 2 x numKernels. There are no learned parameters; extraction is
// deterministic given the fixed bank. Only univariate series are supported.
type RocketExtractor struct {
	kernels     []rocketKernel
	inputLength int
}

// NewRocketExtractor generates a kernel bank for series of the given length.
// The bank is drawn from the given seed, so two extractors built with the
// same arguments produce identical features.
func NewRocketExtractor(inputLength, numKernels int, seed int64) (*RocketExtractor, error) {
	if inputLength < 2 {
		return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("input length %d is too short for kernel transforms", inputLength))
	}
	if numKernels <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("kernel bank size must be positive, got %d", numKernels))
	}

	lengths := make([]int, 0, len(rocketKernelLengths))
	for _, l := range rocketKernelLengths {
		if l <= inputLength {
			lengths = append(lengths, l)
		}
	}
	if len(lengths) == 0 {
		return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("input length %d is shorter than every candidate kernel", inputLength))
	}

	rng := rand.New(rand.NewSource(seed))
	kernels := make([]rocketKernel, numKernels)
	for i := range kernels {
		length := lengths[rng.Intn(len(lengths))]

		weights := make([]float64, length)
		mean := 0.0
		for j := range weights {
			weights[j] = rng.NormFloat64()
			mean += weights[j]
		}
		mean /= float64(length)
		for j := range weights {
			weights[j] -= mean
		}

		maxExp := math.Log2(float64(inputLength-1) / float64(length-1))
		dilation := int(math.Pow(2, rng.Float64()*maxExp))
		if dilation < 1 {
			dilation = 1
		}

		padding := 0
		if rng.Intn(2) == 1 {
			padding = (length - 1) * dilation / 2
		}

		kernels[i] = rocketKernel{
			weights:  weights,
			length:   length,
			bias:     rng.Float64()*2 - 1,
			dilation: dilation,
			padding:  padding,
		}
	}

	return &RocketExtractor{kernels: kernels, inputLength: inputLength}, nil
}

// Name implements interfaces.FeatureExtractor.
func (e *RocketExtractor) Name() string {
	return constants.ExtractorRocket
}

// FeatureDim implements interfaces.FeatureExtractor.
func (e *RocketExtractor) FeatureDim() int {
	return 2 * len(e.kernels)
}

// Extract computes the kernel-transform features for every series in the
// batch. Multi-channel input fails with an unsupported-channel error.
func (e *RocketExtractor) Extract(batch *models.TimeSeriesBatch) (*models.FeatureSet, error) {
	if batch.Len() > 0 && batch.Channels() != 1 {
		return nil, errors.NewConfigurationError(errors.CodeUnsupportedChannels,
			errors.ErrUnsupportedChannels.Error()).
			WithDetails(fmt.Sprintf("kernel transform supports univariate series only, got %d channels", batch.Channels()))
	}

	vectors := make([][]float64, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		series := batch.Sample(i)[0]
		v := make([]float64, 0, e.FeatureDim())
		for _, k := range e.kernels {
			ppv, max := k.apply(series)
			v = append(v, ppv, max)
		}
		vectors[i] = v
	}
	return models.NewFeatureSet(vectors)
}

// apply slides the kernel over x and returns the proportion of positive
// responses and the maximum response.
func (k *rocketKernel) apply(x []float64) (ppv, max float64) {
	n := len(x)
	outputLength := n + 2*k.padding - (k.length-1)*k.dilation
	if outputLength < 1 {
		return 0, k.bias
	}

	positives := 0
	max = math.Inf(-1)
	end := n + k.padding - (k.length-1)*k.dilation
	for i := -k.padding; i < end; i++ {
		sum := k.bias
		index := i
		for j := 0; j < k.length; j++ {
			if index >= 0 && index < n {
				sum += k.weights[j] * x[index]
			}
			index += k.dilation
		}
		if sum > max {
			max = sum
		}
		if sum > 0 {
			positives++
		}
	}
	return float64(positives) / float64(outputLength), max
}
