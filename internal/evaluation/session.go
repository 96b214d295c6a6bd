// Package evaluation orchestrates a full quality-evaluation run: loading the
// reference corpus and pretrained collaborators, caching reference features,
// and computing comparative scores for generated data.
package evaluation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	runner "github.com/inferloop/tseval/internal/batch"
	"github.com/inferloop/tseval/internal/features"
	"github.com/inferloop/tseval/internal/generative"
	"github.com/inferloop/tseval/internal/metrics"
	"github.com/inferloop/tseval/internal/projection"
	"github.com/inferloop/tseval/internal/telemetry"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

// Dependencies are the external collaborators of a session. Loader is
// required; every nil field is built from configuration and checkpoints.
type Dependencies struct {
	Loader    interfaces.CorpusLoader
	Sampler   interfaces.Sampler
	Refiner   interfaces.Refiner
	Extractor interfaces.FeatureExtractor
	Sink      interfaces.TelemetrySink
	Logger    *logrus.Logger
}

// Session owns all cached evaluation state: the reference corpus, the
// reference feature sets computed once at construction, and the fitted 2-D
// projector with its axis bounds. Sessions are synchronous and
// single-threaded; batched operations run back to back, never overlapped.
type Session struct {
	id        string
	cfg       *Config
	logger    *logrus.Logger
	sink      interfaces.TelemetrySink
	corpus    *models.ReferenceCorpus
	sampler   interfaces.Sampler
	refiner   interfaces.Refiner
	extractor interfaces.FeatureExtractor
	calc      *metrics.Calculator
	projector *projection.Projector
	zTrain    *models.FeatureSet
	zTest     *models.FeatureSet
}

// NewSession loads every collaborator, computes the reference feature sets
// and fits the projector. Construction failures are fatal: a missing
// checkpoint or unknown extractor type surfaces immediately.
func NewSession(cfg *Config, deps Dependencies) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Loader == nil {
		return nil, errors.WrapError(errors.ErrMissingConfiguration, errors.ErrorTypeConfiguration,
			errors.CodeMissingField, "a corpus loader is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	sink := deps.Sink
	if sink == nil {
		sink = telemetry.NewLogSink(logger)
	}

	corpus, err := deps.Loader.Load(cfg.Dataset, cfg.DataScaling)
	if err != nil {
		return nil, err
	}
	if err := corpus.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeEmptyInput, "reference corpus is inconsistent")
	}

	sampler := deps.Sampler
	if sampler == nil {
		sampler, err = generative.NewDecoder(cfg.CheckpointDir, cfg.Dataset, logger)
		if err != nil {
			return nil, err
		}
	}

	refiner := deps.Refiner
	if refiner == nil {
		if cfg.UseFidelityEnhancer {
			refiner, err = generative.NewFidelityEnhancer(cfg.CheckpointDir, cfg.Dataset)
			if err != nil {
				return nil, err
			}
		} else {
			refiner = generative.IdentityRefiner{}
		}
	}

	extractor := deps.Extractor
	if extractor == nil {
		extractor, err = features.NewExtractor(features.FactoryConfig{
			Type:          cfg.FeatureExtractor,
			Dataset:       cfg.Dataset,
			CheckpointDir: cfg.CheckpointDir,
			InputLength:   corpus.SeriesLength(),
			NumKernels:    cfg.RocketNumKernels,
			KernelSeed:    cfg.RocketKernelSeed,
		})
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		id:        uuid.New().String(),
		cfg:       cfg,
		logger:    logger,
		sink:      sink,
		corpus:    corpus,
		sampler:   sampler,
		refiner:   refiner,
		extractor: extractor,
		calc:      metrics.NewCalculator(cfg.InceptionSplits, logger),
		projector: projection.NewProjector(),
	}

	s.zTrain, err = s.FeaturesOf(corpus.XTrain)
	if err != nil {
		return nil, err
	}
	s.zTest, err = s.FeaturesOf(corpus.XTest)
	if err != nil {
		return nil, err
	}

	if err := s.projector.Fit(features.RemoveOutliers(s.zTrain)); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"session":   s.id,
		"dataset":   corpus.Name,
		"extractor": extractor.Name(),
		"dim":       extractor.FeatureDim(),
		"train":     corpus.XTrain.Len(),
		"test":      corpus.XTest.Len(),
		"refiner":   refiner.Active(),
	}).Info("Evaluation session ready")

	return s, nil
}

// ID returns the session's run identifier.
func (s *Session) ID() string {
	return s.id
}

// Corpus returns the reference corpus loaded at construction.
func (s *Session) Corpus() *models.ReferenceCorpus {
	return s.corpus
}

// TrainFeatures returns the cached reference-train feature set.
func (s *Session) TrainFeatures() *models.FeatureSet {
	return s.zTrain
}

// TestFeatures returns the cached reference-test feature set.
func (s *Session) TestFeatures() *models.FeatureSet {
	return s.zTest
}

// Projector returns the 2-D projector fitted on outlier-filtered train
// features. Read-only after construction.
func (s *Session) Projector() *projection.Projector {
	return s.projector
}

// FeaturesOf extracts one feature vector per series, batched by the
// configured batch size.
func (s *Session) FeaturesOf(batch *models.TimeSeriesBatch) (*models.FeatureSet, error) {
	return runner.RunFeatures(batch, s.cfg.BatchSize, s.extractor.Extract)
}

// Generate draws n synthetic series from the generative collaborator and
// applies the refinement module in batches. Both the raw and the refined
// batches are returned.
func (s *Session) Generate(ctx context.Context, n int, kind models.SampleKind, classIndex int) (raw, refined *models.TimeSeriesBatch, err error) {
	raw, err = s.sampler.Sample(ctx, kind, n, classIndex)
	if err != nil {
		return nil, nil, err
	}

	refined, err = runner.RunSeries(raw, s.cfg.BatchSize, s.refiner.Refine)
	if err != nil {
		return nil, nil, err
	}
	return raw, refined, nil
}

// ReconstructionFeatures passes a reference split through the decoder's
// reconstruction path and extracts features of the result.
func (s *Session) ReconstructionFeatures(ctx context.Context, split string) (*models.FeatureSet, error) {
	var x *models.TimeSeriesBatch
	switch split {
	case "train":
		x = s.corpus.XTrain
	case "test":
		x = s.corpus.XTest
	default:
		return nil, errors.NewConfigurationError(errors.CodeOutOfRange,
			fmt.Sprintf("unknown split %q, expected train or test", split))
	}

	rec, err := runner.RunSeries(x, s.cfg.BatchSize, func(part *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
		return s.sampler.Reconstruct(ctx, part)
	})
	if err != nil {
		return nil, err
	}
	return s.FeaturesOf(rec)
}

// ScoreFID computes the Fréchet distance between two feature sets and
// records it to the telemetry sink.
func (s *Session) ScoreFID(a, b *models.FeatureSet) (float64, error) {
	fid, err := s.calc.FrechetDistance(a, b)
	if err != nil {
		return 0, err
	}
	s.emitScalar("fid", fid)
	return fid, nil
}

// ScoreIS runs the classifier head over the batch and computes the
// concentration score. Sessions built with a non-classifier extractor
// (rocket) cannot compute it and return a configuration error.
func (s *Session) ScoreIS(batch *models.TimeSeriesBatch) (mean, std float64, err error) {
	classifier, ok := s.extractor.(interfaces.Classifier)
	if !ok {
		return 0, 0, errors.NewConfigurationError(errors.CodeUnknownExtractor,
			fmt.Sprintf("inception score needs a classifier extractor, %q has no class head", s.extractor.Name()))
	}

	probs, err := runner.Run(batch.Samples(), s.cfg.BatchSize, func(chunk [][][]float64) ([]models.ClassProbabilityVector, error) {
		part, err := models.NewTimeSeriesBatch(chunk)
		if err != nil {
			return nil, err
		}
		return classifier.Classify(part)
	})
	if err != nil {
		return 0, 0, err
	}

	mean, std, err = s.calc.InceptionScore(probs)
	if err != nil {
		return 0, 0, err
	}
	s.emitScalar("is_mean", mean)
	s.emitScalar("is_std", std)
	return mean, std, nil
}

// LogProjection projects the labeled feature sets with the fitted projector
// and sends the scatter to the telemetry sink. Fire-and-forget: failures are
// logged, never returned.
func (s *Session) LogProjection(name string, labels []string, sets []*models.FeatureSet) {
	if len(labels) != len(sets) {
		s.logger.WithField("diagnostic", name).Warn("Projection labels and sets differ in count, skipping")
		return
	}

	series := make([]interfaces.ScatterSeries, 0, len(sets))
	for i, set := range sets {
		points, err := s.projector.Transform(features.RemoveOutliers(set))
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"diagnostic": name,
				"label":      labels[i],
				"error":      err,
			}).Warn("Projection transform failed, skipping")
			return
		}
		series = append(series, interfaces.ScatterSeries{Label: labels[i], Points: points})
	}

	if err := s.sink.LogScatter(name, series); err != nil {
		s.logger.WithFields(logrus.Fields{"diagnostic": name, "error": err}).Warn("Telemetry sink failed")
	}
}

// LogComparison sends a visual-inspection overlay of two batches to the
// telemetry sink. Fire-and-forget.
func (s *Session) LogComparison(name string, top, bottom *models.TimeSeriesBatch) {
	if err := s.sink.LogSeriesOverlay(name, top, bottom); err != nil {
		s.logger.WithFields(logrus.Fields{"diagnostic": name, "error": err}).Warn("Telemetry sink failed")
	}
}

func (s *Session) emitScalar(name string, value float64) {
	if err := s.sink.LogScalar(name, value); err != nil {
		s.logger.WithFields(logrus.Fields{"metric": name, "error": err}).Warn("Telemetry sink failed")
	}
}
