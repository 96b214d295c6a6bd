package evaluation

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tseval/internal/corpus"
	"github.com/inferloop/tseval/internal/telemetry"
	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

const (
	testSeriesLength = 64
	testTrainSize    = 100
	testTestSize     = 50
)

// sineRows draws noisy sine series, the shared distribution of the test
// corpus and the matched stub sampler.
func sineRows(n, length int, rng *rand.Rand) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		phase := rng.Float64() * 2 * math.Pi
		row := make([]float64, length)
		for t := range row {
			row[t] = math.Sin(2*math.Pi*float64(t)/16+phase) + 0.1*rng.NormFloat64()
		}
		rows[i] = row
	}
	return rows
}

func noiseRows(n, length int, rng *rand.Rand) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, length)
		for t := range row {
			row[t] = 5 * rng.NormFloat64()
		}
		rows[i] = row
	}
	return rows
}

func testCorpus(t *testing.T, rng *rand.Rand) *models.ReferenceCorpus {
	t.Helper()

	train, err := models.NewUnivariateBatch(sineRows(testTrainSize, testSeriesLength, rng))
	require.NoError(t, err)
	test, err := models.NewUnivariateBatch(sineRows(testTestSize, testSeriesLength, rng))
	require.NoError(t, err)

	yTrain := make([]int, testTrainSize)
	yTest := make([]int, testTestSize)
	return &models.ReferenceCorpus{
		Name:   "stub",
		XTrain: train,
		XTest:  test,
		YTrain: yTrain,
		YTest:  yTest,
	}
}

// stubSampler draws from the same noisy-sine distribution as the stub
// corpus and reconstructs by passing series through unchanged.
type stubSampler struct {
	rng *rand.Rand
}

func (s *stubSampler) Sample(_ context.Context, kind models.SampleKind, n, _ int) (*models.TimeSeriesBatch, error) {
	if !kind.Valid() {
		return nil, errors.NewConfigurationError(errors.CodeInvalidSampleKind, string(kind))
	}
	return models.NewUnivariateBatch(sineRows(n, testSeriesLength, s.rng))
}

func (s *stubSampler) Reconstruct(_ context.Context, batch *models.TimeSeriesBatch) (*models.TimeSeriesBatch, error) {
	return batch, nil
}

func testSessionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Dataset = "stub"
	cfg.UseCustomDataset = true
	cfg.RocketNumKernels = 50
	cfg.BatchSize = 16
	return cfg
}

func newTestSession(t *testing.T, rng *rand.Rand) *Session {
	t.Helper()

	s, err := NewSession(testSessionConfig(), Dependencies{
		Loader:  &corpus.CustomLoader{Corpus: testCorpus(t, rng)},
		Sampler: &stubSampler{rng: rng},
		Sink:    telemetry.NopSink{},
	})
	require.NoError(t, err)
	return s
}

func TestNewSessionCachesReferenceState(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(7)))

	assert.NotEmpty(t, s.ID())
	require.NotNil(t, s.TrainFeatures())
	require.NotNil(t, s.TestFeatures())
	assert.Equal(t, testTrainSize, s.TrainFeatures().Len())
	assert.Equal(t, testTestSize, s.TestFeatures().Len())
	assert.Equal(t, 2*50, s.TrainFeatures().Dim())
	assert.True(t, s.Projector().Fitted())
}

func TestNewSessionRequiresLoader(t *testing.T) {
	_, err := NewSession(testSessionConfig(), Dependencies{})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.ErrorTypeConfiguration, appErr.Type)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := testSessionConfig()
	cfg.BatchSize = 0

	_, err := NewSession(cfg, Dependencies{
		Loader: &corpus.CustomLoader{Corpus: testCorpus(t, rand.New(rand.NewSource(1)))},
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeInvalidBatchSize, appErr.Code)
}

func TestGenerateReturnsRawAndRefined(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(11)))

	raw, refined, err := s.Generate(context.Background(), 20, models.SampleUnconditional, interfaces.NoClass)
	require.NoError(t, err)
	require.NotNil(t, raw)
	require.NotNil(t, refined)
	assert.Equal(t, 20, raw.Len())
	assert.Equal(t, 20, refined.Len())
	assert.Equal(t, testSeriesLength, raw.SeriesLength())

	// default config runs the identity refiner
	assert.Equal(t, raw.Samples(), refined.Samples())
}

func TestScoreFIDSeparatesMatchedFromNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	s := newTestSession(t, rng)

	_, matched, err := s.Generate(context.Background(), testTestSize, models.SampleUnconditional, interfaces.NoClass)
	require.NoError(t, err)
	zMatched, err := s.FeaturesOf(matched)
	require.NoError(t, err)

	noise, err := models.NewUnivariateBatch(noiseRows(testTestSize, testSeriesLength, rng))
	require.NoError(t, err)
	zNoise, err := s.FeaturesOf(noise)
	require.NoError(t, err)

	fidMatched, err := s.ScoreFID(s.TestFeatures(), zMatched)
	require.NoError(t, err)
	fidNoise, err := s.ScoreFID(s.TestFeatures(), zNoise)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(fidMatched))
	assert.GreaterOrEqual(t, fidMatched, 0.0)
	assert.Greater(t, fidNoise, 5*fidMatched,
		"distance to foreign data should dwarf distance to matched data")
}

func TestScoreFIDInsufficientDataDoesNotAbortSession(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(3)))

	one := s.TestFeatures().SliceRows(0, 1)
	_, err := s.ScoreFID(s.TestFeatures(), one)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))

	// the session stays usable after a skipped score
	fid, err := s.ScoreFID(s.TestFeatures(), s.TrainFeatures())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fid, 0.0)
}

func TestScoreISRequiresClassifierExtractor(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(5)))

	_, _, err := s.ScoreIS(s.Corpus().XTest)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.ErrorTypeConfiguration, appErr.Type)
}

func TestReconstructionFeatures(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(13)))

	zRec, err := s.ReconstructionFeatures(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, testTestSize, zRec.Len())

	_, err = s.ReconstructionFeatures(context.Background(), "validation")
	require.Error(t, err)
}

func TestLogProjectionNeverPropagatesSinkFailures(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	s, err := NewSession(testSessionConfig(), Dependencies{
		Loader:  &corpus.CustomLoader{Corpus: testCorpus(t, rng)},
		Sampler: &stubSampler{rng: rng},
		Sink:    failingSink{},
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.LogProjection("pca", []string{"train", "test"},
			[]*models.FeatureSet{s.TrainFeatures(), s.TestFeatures()})
		s.LogComparison("overlay", s.Corpus().XTrain, s.Corpus().XTest)
	})
}

func TestEvaluateSkipsUncomputableMetrics(t *testing.T) {
	s := newTestSession(t, rand.New(rand.NewSource(29)))

	report, err := s.Evaluate(context.Background(), 30, models.SampleUnconditional, interfaces.NoClass)
	require.NoError(t, err)

	require.NotNil(t, report.FID)
	assert.GreaterOrEqual(t, *report.FID, 0.0)
	assert.Equal(t, 30, report.NumGenerated)
	assert.False(t, report.RefinerActive)
	assert.Nil(t, report.FIDRefined)

	// rocket has no class head, so the concentration score is skipped
	assert.Nil(t, report.ISMean)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0], "is:")
}

type failingSink struct{}

func (failingSink) LogScalar(string, float64) error { return errors.NewInternalError("sink down") }

func (failingSink) LogScatter(string, []interfaces.ScatterSeries) error {
	return errors.NewInternalError("sink down")
}

func (failingSink) LogSeriesOverlay(string, *models.TimeSeriesBatch, *models.TimeSeriesBatch) error {
	return errors.NewInternalError("sink down")
}

func (failingSink) Close() error { return nil }
