package models

import (
	"fmt"
	"sort"
)

// ReferenceCorpus holds the real train/test splits an evaluation run compares
// against. Loaded once at session start and immutable thereafter.
type ReferenceCorpus struct {
	Name   string
	XTrain *TimeSeriesBatch
	XTest  *TimeSeriesBatch
	YTrain []int
	YTest  []int
}

// Validate checks split/label consistency.
func (c *ReferenceCorpus) Validate() error {
	if c.XTrain == nil || c.XTest == nil {
		return fmt.Errorf("corpus %q is missing a data split", c.Name)
	}
	if c.XTrain.Len() != len(c.YTrain) {
		return fmt.Errorf("corpus %q: %d train series but %d train labels", c.Name, c.XTrain.Len(), len(c.YTrain))
	}
	if c.XTest.Len() != len(c.YTest) {
		return fmt.Errorf("corpus %q: %d test series but %d test labels", c.Name, c.XTest.Len(), len(c.YTest))
	}
	return nil
}

// SeriesLength returns the length of the series in the corpus.
func (c *ReferenceCorpus) SeriesLength() int {
	return c.XTrain.SeriesLength()
}

// NumClasses returns the number of distinct labels in the training split.
func (c *ReferenceCorpus) NumClasses() int {
	seen := make(map[int]struct{}, len(c.YTrain))
	for _, y := range c.YTrain {
		seen[y] = struct{}{}
	}
	return len(seen)
}

// Classes returns the distinct training labels in ascending order.
func (c *ReferenceCorpus) Classes() []int {
	seen := make(map[int]struct{}, len(c.YTrain))
	for _, y := range c.YTrain {
		seen[y] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for y := range seen {
		classes = append(classes, y)
	}
	sort.Ints(classes)
	return classes
}
