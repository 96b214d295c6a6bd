// Package corpus loads the real reference data an evaluation run compares
// generated samples against.
package corpus

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// UCRLoader reads UCR-archive-style datasets from disk: one directory per
// dataset containing <name>_TRAIN.tsv and <name>_TEST.tsv, each row being a
// class label followed by the series values, tab-separated.
type UCRLoader struct {
	dir    string
	logger *logrus.Logger
}

// NewUCRLoader creates a loader rooted at the given data directory.
func NewUCRLoader(dir string, logger *logrus.Logger) *UCRLoader {
	if logger == nil {
		logger = logrus.New()
	}
	return &UCRLoader{dir: dir, logger: logger}
}

// Load implements interfaces.CorpusLoader. When scale is set, both splits
// are z-normalized with the mean and standard deviation of the training
// values, so test data stays on the train scale. Labels are remapped to
// contiguous indices starting at 0.
func (l *UCRLoader) Load(dataset string, scale bool) (*models.ReferenceCorpus, error) {
	trainRows, trainLabels, err := l.readSplit(dataset, "TRAIN")
	if err != nil {
		return nil, err
	}
	testRows, testLabels, err := l.readSplit(dataset, "TEST")
	if err != nil {
		return nil, err
	}

	if scale {
		mean, std := trainMoments(trainRows)
		applyZScale(trainRows, mean, std)
		applyZScale(testRows, mean, std)
	}

	remap := labelIndex(trainLabels, testLabels)
	for i, y := range trainLabels {
		trainLabels[i] = remap[y]
	}
	for i, y := range testLabels {
		testLabels[i] = remap[y]
	}

	xTrain, err := models.NewUnivariateBatch(trainRows)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeDimensionMismatch,
			fmt.Sprintf("inconsistent train series lengths in dataset %q", dataset))
	}
	xTest, err := models.NewUnivariateBatch(testRows)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeDimensionMismatch,
			fmt.Sprintf("inconsistent test series lengths in dataset %q", dataset))
	}

	corpus := &models.ReferenceCorpus{
		Name:   dataset,
		XTrain: xTrain,
		XTest:  xTest,
		YTrain: trainLabels,
		YTest:  testLabels,
	}
	if err := corpus.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeEmptyInput, "loaded corpus is inconsistent")
	}

	l.logger.WithFields(logrus.Fields{
		"dataset": dataset,
		"train":   xTrain.Len(),
		"test":    xTest.Len(),
		"length":  xTrain.SeriesLength(),
		"classes": corpus.NumClasses(),
		"scaled":  scale,
	}).Info("Loaded reference corpus")

	return corpus, nil
}

func (l *UCRLoader) readSplit(dataset, split string) ([][]float64, []int, error) {
	path := filepath.Join(l.dir, dataset, fmt.Sprintf("%s_%s.tsv", dataset, split))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.WrapError(errors.ErrEmptyInput, errors.ErrorTypeData, errors.CodeEmptyInput,
				fmt.Sprintf("dataset split file not found: %s", path))
		}
		return nil, nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInternalError, "failed to open dataset split")
	}
	defer f.Close()

	var rows [][]float64
	var labels []int

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, nil, errors.WrapError(errors.ErrEmptyInput, errors.ErrorTypeData, errors.CodeEmptyInput,
				fmt.Sprintf("%s line %d has no series values", path, lineNo))
		}

		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInternalError,
				fmt.Sprintf("%s line %d has an unparsable label", path, lineNo))
		}

		row := make([]float64, len(fields)-1)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInternalError,
					fmt.Sprintf("%s line %d column %d has an unparsable value", path, lineNo, i+2))
			}
			row[i] = v
		}

		rows = append(rows, row)
		labels = append(labels, int(label))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeInternalError, "failed to read dataset split")
	}
	if len(rows) == 0 {
		return nil, nil, errors.WrapError(errors.ErrEmptyInput, errors.ErrorTypeData, errors.CodeEmptyInput,
			fmt.Sprintf("dataset split %s is empty", path))
	}
	return rows, labels, nil
}

func trainMoments(rows [][]float64) (mean, std float64) {
	var all []float64
	for _, row := range rows {
		all = append(all, row...)
	}
	mean, std = stat.MeanStdDev(all, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return mean, std
}

func applyZScale(rows [][]float64, mean, std float64) {
	for _, row := range rows {
		for j := range row {
			row[j] = (row[j] - mean) / std
		}
	}
}

// labelIndex maps raw labels to contiguous indices ordered by raw value.
func labelIndex(labelSets ...[]int) map[int]int {
	seen := make(map[int]struct{})
	for _, labels := range labelSets {
		for _, y := range labels {
			seen[y] = struct{}{}
		}
	}
	raw := make([]int, 0, len(seen))
	for y := range seen {
		raw = append(raw, y)
	}
	sort.Ints(raw)
	remap := make(map[int]int, len(raw))
	for i, y := range raw {
		remap[y] = i
	}
	return remap
}

// CustomLoader serves a caller-provided corpus, bypassing dataset-identity
// lookup entirely. The scale flag is ignored; custom data arrives already
// prepared.
type CustomLoader struct {
	Corpus *models.ReferenceCorpus
}

// Load implements interfaces.CorpusLoader.
func (l *CustomLoader) Load(string, bool) (*models.ReferenceCorpus, error) {
	if l.Corpus == nil {
		return nil, errors.WrapError(errors.ErrEmptyInput, errors.ErrorTypeData, errors.CodeEmptyInput, "custom loader has no corpus")
	}
	if err := l.Corpus.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeEmptyInput, "custom corpus is inconsistent")
	}
	return l.Corpus, nil
}
