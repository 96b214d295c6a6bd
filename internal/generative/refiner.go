package generative

import (
	"fmt"

	"github.com/inferloop/tseval/internal/checkpoint"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// FidelityEnhancer is the learned residual refinement module: a small
// per-channel convolution whose output, scaled by a learned factor, is added
// back to the input series.
type FidelityEnhancer struct {
	weights *checkpoint.EnhancerWeights
}

// NewFidelityEnhancer loads the enhancer checkpoint for a dataset identity.
func NewFidelityEnhancer(checkpointDir, dataset string) (*FidelityEnhancer, error) {
	w, err := checkpoint.LoadEnhancer(checkpointDir, dataset)
	if err != nil {
		return nil, err
	}
	return NewFidelityEnhancerFromWeights(w)
}

// NewFidelityEnhancerFromWeights wraps already-loaded enhancer weights.
func NewFidelityEnhancerFromWeights(w *checkpoint.EnhancerWeights) (*FidelityEnhancer, error) {
	if len(w.Kernel) == 0 {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt, "enhancer checkpoint has an empty kernel")
	}
	if len(w.Kernel)%2 == 0 {
		return nil, errors.NewCheckpointError(errors.CodeCheckpointCorrupt,
			fmt.Sprintf("enhancer kernel length must be odd, got %d", len(w.Kernel)))
	}
	return &FidelityEnhancer{weights: w}, nil
}

// Active implements interfaces.Refiner.
func (e *FidelityEnhancer) Active() bool {
	return true
}

// Refine implements interfaces.Refiner.
func (e *FidelityEnhancer) Refine(batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
	pad := (len(e.weights.Kernel) - 1) / 2

	samples := make([][][]float64, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		src := batch.Sample(i)
		refined := make([][]float64, len(src))
		for c, channel := range src {
			out := make([]float64, len(channel))
			for t := range channel {
				residual := e.weights.Bias
				for j, w := range e.weights.Kernel {
					idx := t + j - pad
					if idx >= 0 && idx < len(channel) {
						residual += w * channel[idx]
					}
				}
				out[t] = channel[t] + e.weights.Alpha*residual
			}
			refined[c] = out
		}
		samples[i] = refined
	}
	return models.NewTimeSeriesBatch(samples)
}

// IdentityRefiner is the no-op refinement variant selected when the fidelity
// enhancer is disabled.
type IdentityRefiner struct{}

// Active implements interfaces.Refiner.
func (IdentityRefiner) Active() bool {
	return false
}

// Refine implements interfaces.Refiner: the input batch is returned as-is.
func (IdentityRefiner) Refine(batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
	return batch, nil
}
