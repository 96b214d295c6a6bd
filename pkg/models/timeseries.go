package models

import (
	"fmt"
)

// TimeSeriesBatch is an ordered collection of fixed-shape time series with
// layout (batch, channels, length). Batches are treated as immutable once
// constructed; all transforms produce new batches.
type TimeSeriesBatch struct {
	samples [][][]float64
	chans   int
	length  int
}

// NewTimeSeriesBatch builds a batch from raw samples laid out as
// (batch, channels, length). Every sample must share the same channel count
// and series length.
func NewTimeSeriesBatch(samples [][][]float64) (*TimeSeriesBatch, error) {
	if len(samples) == 0 {
		return &TimeSeriesBatch{}, nil
	}

	chans := len(samples[0])
	if chans == 0 {
		return nil, fmt.Errorf("sample 0 has no channels")
	}
	length := len(samples[0][0])

	for i, sample := range samples {
		if len(sample) != chans {
			return nil, fmt.Errorf("sample %d has %d channels, expected %d", i, len(sample), chans)
		}
		for c, channel := range sample {
			if len(channel) != length {
				return nil, fmt.Errorf("sample %d channel %d has length %d, expected %d", i, c, len(channel), length)
			}
		}
	}

	return &TimeSeriesBatch{samples: samples, chans: chans, length: length}, nil
}

// NewUnivariateBatch builds a single-channel batch from per-series value rows.
func NewUnivariateBatch(rows [][]float64) (*TimeSeriesBatch, error) {
	samples := make([][][]float64, len(rows))
	for i, row := range rows {
		samples[i] = [][]float64{row}
	}
	return NewTimeSeriesBatch(samples)
}

// Len returns the number of series in the batch.
func (b *TimeSeriesBatch) Len() int {
	return len(b.samples)
}

// Channels returns the number of channels per series.
func (b *TimeSeriesBatch) Channels() int {
	return b.chans
}

// SeriesLength returns the number of points per series.
func (b *TimeSeriesBatch) SeriesLength() int {
	return b.length
}

// Sample returns the i-th series as (channels, length). The returned slices
// share backing storage with the batch and must not be modified.
func (b *TimeSeriesBatch) Sample(i int) [][]float64 {
	return b.samples[i]
}

// Samples returns all series as (batch, channels, length). Read-only view.
func (b *TimeSeriesBatch) Samples() [][][]float64 {
	return b.samples
}

// Slice returns the contiguous sub-batch [i, j). The sub-batch shares backing
// storage with the parent.
func (b *TimeSeriesBatch) Slice(i, j int) *TimeSeriesBatch {
	return &TimeSeriesBatch{samples: b.samples[i:j], chans: b.chans, length: b.length}
}

// Univariate returns the batch as per-series value rows (batch, length).
// It fails when the batch carries more than one channel.
func (b *TimeSeriesBatch) Univariate() ([][]float64, error) {
	if b.Len() > 0 && b.chans != 1 {
		return nil, fmt.Errorf("batch has %d channels, expected 1", b.chans)
	}
	rows := make([][]float64, b.Len())
	for i, sample := range b.samples {
		rows[i] = sample[0]
	}
	return rows, nil
}

// ConcatBatches concatenates batches along the sample axis, preserving input
// order. All non-empty batches must share channel count and series length.
func ConcatBatches(batches ...*TimeSeriesBatch) (*TimeSeriesBatch, error) {
	total := 0
	for _, b := range batches {
		total += b.Len()
	}
	samples := make([][][]float64, 0, total)
	for _, b := range batches {
		samples = append(samples, b.samples...)
	}
	return NewTimeSeriesBatch(samples)
}

// SampleKind selects the sampling mode of a generative collaborator.
type SampleKind string

const (
	// SampleUnconditional draws samples without class conditioning.
	SampleUnconditional SampleKind = "unconditional"
	// SampleConditional draws samples conditioned on a class index.
	SampleConditional SampleKind = "conditional"
)

// Valid reports whether the sample kind is recognized.
func (k SampleKind) Valid() bool {
	return k == SampleUnconditional || k == SampleConditional
}
