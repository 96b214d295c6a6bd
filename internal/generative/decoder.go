// Package generative hosts the opaque pretrained collaborators of an
// evaluation run: the multi-stage token decoder used for sampling and the
// optional fidelity enhancer applied to generated series.
package generative

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tseval/internal/checkpoint"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// Decoder is a checkpoint-backed generative sampler. Each series is decoded
// from per-stage token sequences driven by a Markov state machine; stage
// outputs (frequency bands) are summed. The checkpoint fully determines the
// model; the decoder never mutates it.
type Decoder struct {
	weights *checkpoint.DecoderWeights
	segLen  int
	rng     *rand.Rand
	logger  *logrus.Logger
}

// NewDecoder loads the stage2 decoder checkpoint for a dataset identity.
func NewDecoder(checkpointDir, dataset string, logger *logrus.Logger) (*Decoder, error) {
	w, err := checkpoint.LoadDecoder(checkpointDir, dataset)
	if err != nil {
		return nil, err
	}
	return NewDecoderFromWeights(w, logger)
}

// NewDecoderFromWeights wraps already-loaded decoder weights.
func NewDecoderFromWeights(w *checkpoint.DecoderWeights, logger *logrus.Logger) (*Decoder, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if len(w.Stages) == 0 {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt, "decoder checkpoint has no stages")
	}
	if w.TokensPerSeries <= 0 || w.SeriesLength <= 0 || w.SeriesLength%w.TokensPerSeries != 0 {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt,
			fmt.Sprintf("series length %d is not divisible into %d tokens", w.SeriesLength, w.TokensPerSeries))
	}
	segLen := w.SeriesLength / w.TokensPerSeries
	for si, stage := range w.Stages {
		if len(stage.Codebook) == 0 {
			return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt,
				fmt.Sprintf("stage %d has an empty codebook", si))
		}
		for ti, code := range stage.Codebook {
			if len(code) != segLen {
				return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt,
					fmt.Sprintf("stage %d token %d has segment length %d, expected %d", si, ti, len(code), segLen))
			}
		}
	}

	seed := w.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Decoder{
		weights: w,
		segLen:  segLen,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}, nil
}

// SeriesLength returns the length of decoded series.
func (d *Decoder) SeriesLength() int {
	return d.weights.SeriesLength
}

// Sample implements interfaces.Sampler.
func (d *Decoder) Sample(ctx context.Context, kind models.SampleKind, n int, classIndex int) (*models.TimeSeriesBatch, error) {
	if !kind.Valid() {
		return nil, errors.WrapError(errors.ErrInvalidSampleKind, errors.ErrorTypeConfiguration, errors.CodeInvalidSampleKind,
			fmt.Sprintf("sample kind %q", kind))
	}
	if kind == models.SampleConditional && classIndex < 0 {
		return nil, errors.WrapError(errors.ErrInvalidSampleKind, errors.ErrorTypeConfiguration, errors.CodeInvalidSampleKind,
			"conditional sampling requires a class index")
	}
	if n <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("sample count must be positive, got %d", n))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		series := make([]float64, d.weights.SeriesLength)
		for si := range d.weights.Stages {
			stage := &d.weights.Stages[si]
			initial := stage.Initial
			if kind == models.SampleConditional {
				if classInit, ok := stage.ClassInitial[classIndex]; ok {
					initial = classInit
				} else if si == 0 {
					return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
						fmt.Sprintf("decoder has no conditional state for class %d", classIndex))
				}
			}

			token := sampleIndex(d.rng, initial)
			for t := 0; t < d.weights.TokensPerSeries; t++ {
				segment := stage.Codebook[token]
				for j, v := range segment {
					series[t*d.segLen+j] += v
				}
				token = sampleIndex(d.rng, stage.Transition[token])
			}
		}
		rows[i] = series
	}

	d.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"samples": n,
		"class":   classIndex,
	}).Debug("Decoded synthetic series")

	return models.NewUnivariateBatch(rows)
}

// Reconstruct implements interfaces.Sampler: every segment of every series is
// replaced by the nearest codeword, stage by stage on the running residual.
func (d *Decoder) Reconstruct(ctx context.Context, batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
	if batch.Len() > 0 && batch.Channels() != 1 {
		return nil, errors.NewConfigurationError(errors.CodeUnsupportedChannels,
			fmt.Sprintf("decoder reconstructs univariate series only, got %d channels", batch.Channels()))
	}
	if batch.Len() > 0 && batch.SeriesLength() != d.weights.SeriesLength {
		return nil, errors.NewDimensionMismatchError(
			fmt.Sprintf("series length %d does not match decoder length %d", batch.SeriesLength(), d.weights.SeriesLength))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]float64, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		src := batch.Sample(i)[0]
		residual := make([]float64, len(src))
		copy(residual, src)

		rec := make([]float64, len(src))
		for si := range d.weights.Stages {
			stage := &d.weights.Stages[si]
			for t := 0; t < d.weights.TokensPerSeries; t++ {
				segment := residual[t*d.segLen : (t+1)*d.segLen]
				code := stage.Codebook[nearestCode(stage.Codebook, segment)]
				for j, v := range code {
					rec[t*d.segLen+j] += v
					residual[t*d.segLen+j] -= v
				}
			}
		}
		rows[i] = rec
	}
	return models.NewUnivariateBatch(rows)
}

func sampleIndex(rng *rand.Rand, dist []float64) int {
	r := rng.Float64()
	acc := 0.0
	for i, p := range dist {
		acc += p
		if r < acc {
			return i
		}
	}
	return len(dist) - 1
}

func nearestCode(codebook [][]float64, segment []float64) int {
	best, bestDist := 0, -1.0
	for i, code := range codebook {
		dist := 0.0
		for j, v := range code {
			diff := segment[j] - v
			dist += diff * diff
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
