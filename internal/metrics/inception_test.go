package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

func onehot(class, numClasses int) models.ClassProbabilityVector {
	p := make(models.ClassProbabilityVector, numClasses)
	p[class] = 1
	return p
}

func uniform(numClasses int) models.ClassProbabilityVector {
	p := make(models.ClassProbabilityVector, numClasses)
	for i := range p {
		p[i] = 1 / float64(numClasses)
	}
	return p
}

func TestInceptionScoreAtLeastOne(t *testing.T) {
	calc := NewCalculator(10, nil)

	probs := make([]models.ClassProbabilityVector, 40)
	for i := range probs {
		probs[i] = onehot(i%3, 3)
	}
	mean, std, err := calc.InceptionScore(probs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mean, 1.0)
	assert.GreaterOrEqual(t, std, 0.0)
}

func TestInceptionScoreConfidentDiverseIsMaximal(t *testing.T) {
	calc := NewCalculator(10, nil)
	const numClasses = 4

	// Confident and diverse: one-hot predictions cycling over all classes.
	diverse := make([]models.ClassProbabilityVector, 80)
	for i := range diverse {
		diverse[i] = onehot(i%numClasses, numClasses)
	}

	// Confident but collapsed: every sample predicts the same class.
	collapsed := make([]models.ClassProbabilityVector, 80)
	for i := range collapsed {
		collapsed[i] = onehot(0, numClasses)
	}

	// Unconfident: uniform predictions.
	vague := make([]models.ClassProbabilityVector, 80)
	for i := range vague {
		vague[i] = uniform(numClasses)
	}

	diverseScore, _, err := calc.InceptionScore(diverse)
	require.NoError(t, err)
	collapsedScore, _, err := calc.InceptionScore(collapsed)
	require.NoError(t, err)
	vagueScore, _, err := calc.InceptionScore(vague)
	require.NoError(t, err)

	assert.InDelta(t, float64(numClasses), diverseScore, 1e-6)
	assert.Greater(t, diverseScore, collapsedScore)
	assert.Greater(t, diverseScore, vagueScore)
	assert.InDelta(t, 1.0, collapsedScore, 1e-9)
	assert.InDelta(t, 1.0, vagueScore, 1e-9)
}

func TestInceptionScoreEmptyInput(t *testing.T) {
	calc := NewCalculator(10, nil)
	_, _, err := calc.InceptionScore(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestInceptionScoreFewerSamplesThanSplits(t *testing.T) {
	calc := NewCalculator(10, nil)

	probs := []models.ClassProbabilityVector{onehot(0, 2), onehot(1, 2), onehot(0, 2)}
	mean, std, err := calc.InceptionScore(probs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mean, 1.0)
	assert.GreaterOrEqual(t, std, 0.0)
}

func TestInceptionScoreRejectsInvalidDistribution(t *testing.T) {
	calc := NewCalculator(10, nil)

	_, _, err := calc.InceptionScore([]models.ClassProbabilityVector{{0.5, 0.2}})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeInvalidProbability, appErr.Code)

	_, _, err = calc.InceptionScore([]models.ClassProbabilityVector{{0.5, 0.5}, {0.3, 0.3, 0.4}})
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeDimensionMismatch, appErr.Code)
}
