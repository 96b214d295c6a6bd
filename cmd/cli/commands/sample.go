package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/tseval/internal/generative"
	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

type SampleOptions struct {
	Dataset          string
	CheckpointDir    string
	NumSamples       int
	ClassIndex       int
	FidelityEnhancer bool
	OutputFile       string
}

func NewSampleCmd() *cobra.Command {
	opts := &SampleOptions{}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw synthetic time series from a pretrained decoder",
		Long: `Load the pretrained decoder checkpoint for a dataset and draw synthetic
series, optionally refined by the fidelity enhancer. Series are written one
per line as tab-separated values.`,
		Example: `  # Draw 100 unconditional samples
  tseval sample --dataset Wafer --num-samples 100 --output samples.tsv

  # Draw refined class-conditional samples
  tseval sample --dataset Wafer --class 0 --fidelity-enhancer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "Dataset identity for checkpoint lookup (required)")
	cmd.Flags().StringVar(&opts.CheckpointDir, "checkpoint-dir", "saved_models", "Directory containing pretrained checkpoints")
	cmd.Flags().IntVarP(&opts.NumSamples, "num-samples", "n", 100, "Number of series to draw")
	cmd.Flags().IntVar(&opts.ClassIndex, "class", interfaces.NoClass, "Class index for conditional sampling (-1 for unconditional)")
	cmd.Flags().BoolVar(&opts.FidelityEnhancer, "fidelity-enhancer", false, "Refine drawn series with the pretrained enhancer")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("dataset")

	return cmd
}

func runSample(opts *SampleOptions) error {
	if opts.NumSamples <= 0 {
		return fmt.Errorf("num-samples must be positive, got %d", opts.NumSamples)
	}

	logger := logrus.New()
	decoder, err := generative.NewDecoder(opts.CheckpointDir, opts.Dataset, logger)
	if err != nil {
		return fmt.Errorf("failed to load decoder: %w", err)
	}

	kind := models.SampleUnconditional
	if opts.ClassIndex != interfaces.NoClass {
		kind = models.SampleConditional
	}

	batch, err := decoder.Sample(context.Background(), kind, opts.NumSamples, opts.ClassIndex)
	if err != nil {
		return fmt.Errorf("sampling failed: %w", err)
	}

	if opts.FidelityEnhancer {
		enhancer, err := generative.NewFidelityEnhancer(opts.CheckpointDir, opts.Dataset)
		if err != nil {
			return fmt.Errorf("failed to load fidelity enhancer: %w", err)
		}
		batch, err = enhancer.Refine(batch)
		if err != nil {
			return fmt.Errorf("refinement failed: %w", err)
		}
	}

	return writeSamples(batch, opts.OutputFile)
}

func writeSamples(batch *models.TimeSeriesBatch, outputFile string) error {
	out := os.Stdout
	if outputFile != "-" && outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	rows, err := batch.Univariate()
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for _, row := range rows {
		for t, v := range row {
			if t > 0 {
				if err := w.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}
