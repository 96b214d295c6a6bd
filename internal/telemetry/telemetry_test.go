package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tseval/pkg/interfaces"
	"github.com/inferloop/tseval/pkg/models"
)

type failingSink struct {
	calls int
}

func (f *failingSink) LogScalar(string, float64) error {
	f.calls++
	return fmt.Errorf("sink down")
}
func (f *failingSink) LogScatter(string, []interfaces.ScatterSeries) error {
	f.calls++
	return fmt.Errorf("sink down")
}
func (f *failingSink) LogSeriesOverlay(string, *models.TimeSeriesBatch, *models.TimeSeriesBatch) error {
	f.calls++
	return fmt.Errorf("sink down")
}
func (f *failingSink) Close() error { return nil }

type recordingSink struct {
	scalars map[string]float64
}

func (r *recordingSink) LogScalar(name string, value float64) error {
	if r.scalars == nil {
		r.scalars = map[string]float64{}
	}
	r.scalars[name] = value
	return nil
}
func (r *recordingSink) LogScatter(string, []interfaces.ScatterSeries) error { return nil }
func (r *recordingSink) LogSeriesOverlay(string, *models.TimeSeriesBatch, *models.TimeSeriesBatch) error {
	return nil
}
func (r *recordingSink) Close() error { return nil }

func TestMultiSinkSuppressesFailures(t *testing.T) {
	failing := &failingSink{}
	recording := &recordingSink{}
	m := NewMultiSink(nil, failing, recording)

	require.NoError(t, m.LogScalar("fid", 1.25))
	require.NoError(t, m.LogScatter("pca", nil))

	assert.Equal(t, 2, failing.calls, "failing sink still receives calls")
	assert.Equal(t, 1.25, recording.scalars["fid"], "healthy sink unaffected by failing peer")
}

func TestLogSinkNeverFails(t *testing.T) {
	s := NewLogSink(nil)
	assert.NoError(t, s.LogScalar("is_mean", 2.0))
	batch, err := models.NewUnivariateBatch([][]float64{{1, 2}})
	require.NoError(t, err)
	assert.NoError(t, s.LogSeriesOverlay("visual", batch, batch))
	assert.NoError(t, s.Close())
}

func TestPlotSinkWritesImages(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPlotSink(dir)
	require.NoError(t, err)
	s.SetScatterBounds(-1, 1, -1, 1)

	err = s.LogScatter("pca test/train", []interfaces.ScatterSeries{
		{Label: "train", Points: [][2]float64{{0, 0}, {0.5, 0.5}}},
		{Label: "gen", Points: [][2]float64{{-0.5, -0.5}}},
	})
	require.NoError(t, err)

	batch, err := models.NewUnivariateBatch([][]float64{{0, 1, 0, -1}, {1, 0, -1, 0}})
	require.NoError(t, err)
	require.NoError(t, s.LogSeriesOverlay("visual comp", batch, batch))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		assert.Equal(t, ".png", filepath.Ext(e.Name()))
	}
	assert.Len(t, names, 2)
}

func TestPromSinkRecordsScores(t *testing.T) {
	s := NewPromSink()
	require.NoError(t, s.LogScalar("fid", 3.5))
	require.NoError(t, s.LogScatter("pca", nil))

	families, err := s.Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "tseval_score" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			assert.Equal(t, 3.5, fam.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "score gauge must be registered")
}
