package evaluation

import (
	"context"
	"fmt"

	"github.com/inferloop/tseval/pkg/errors"
	"github.com/inferloop/tseval/pkg/models"
)

// Report is the outcome of a full evaluation pass. Scores that could not be
// computed for this run (too few finite features, no classifier head) are
// nil, with the reason listed in Skipped; a skipped metric never aborts the
// run.
type Report struct {
	SessionID     string   `json:"session_id"`
	Dataset       string   `json:"dataset"`
	Extractor     string   `json:"extractor"`
	NumGenerated  int      `json:"num_generated"`
	RefinerActive bool     `json:"refiner_active"`
	FID           *float64 `json:"fid,omitempty"`
	FIDRefined    *float64 `json:"fid_refined,omitempty"`
	ISMean        *float64 `json:"is_mean,omitempty"`
	ISStd         *float64 `json:"is_std,omitempty"`
	Skipped       []string `json:"skipped,omitempty"`
}

// Evaluate runs the standard evaluation pass: generate n samples, score the
// raw and refined batches against the reference test features, compute the
// concentration score when the extractor has a class head, and emit the
// projection and visual-inspection diagnostics.
func (s *Session) Evaluate(ctx context.Context, n int, kind models.SampleKind, classIndex int) (*Report, error) {
	raw, refined, err := s.Generate(ctx, n, kind, classIndex)
	if err != nil {
		return nil, err
	}

	zGen, err := s.FeaturesOf(raw)
	if err != nil {
		return nil, err
	}
	zRefined, err := s.FeaturesOf(refined)
	if err != nil {
		return nil, err
	}

	report := &Report{
		SessionID:     s.id,
		Dataset:       s.corpus.Name,
		Extractor:     s.extractor.Name(),
		NumGenerated:  raw.Len(),
		RefinerActive: s.refiner.Active(),
	}

	if fid, err := s.ScoreFID(s.zTest, zGen); err != nil {
		if !errors.IsInsufficientData(err) {
			return nil, err
		}
		report.skip("fid", err)
	} else {
		report.FID = &fid
	}

	if s.refiner.Active() {
		if fid, err := s.ScoreFID(s.zTest, zRefined); err != nil {
			if !errors.IsInsufficientData(err) {
				return nil, err
			}
			report.skip("fid_refined", err)
		} else {
			report.FIDRefined = &fid
		}
	}

	if mean, std, err := s.ScoreIS(refined); err != nil {
		var appErr *errors.AppError
		insufficient := errors.IsInsufficientData(err)
		noHead := errors.As(err, &appErr) && appErr.Type == errors.ErrorTypeConfiguration
		if !insufficient && !noHead {
			return nil, err
		}
		report.skip("is", err)
	} else {
		report.ISMean = &mean
		report.ISStd = &std
	}

	s.LogProjection("pca test vs generated", []string{"test", "generated"}, []*models.FeatureSet{s.zTest, zGen})
	if s.refiner.Active() {
		s.LogProjection("pca test vs refined", []string{"test", "refined"}, []*models.FeatureSet{s.zTest, zRefined})
	}
	s.LogComparison("visual comp test vs generated", s.corpus.XTest, refined)

	return report, nil
}

func (r *Report) skip(metric string, err error) {
	r.Skipped = append(r.Skipped, fmt.Sprintf("%s: %v", metric, err))
}
