// Package engine turns classifier probabilities into calibrated,
// interpretable toxicity verdicts: per-comment scores, batch statistics
// and a threshold filter. The scorer itself is pure and deterministic;
// the only I/O in a scoring call is the classifier inference it
// delegates to the adapters.
package engine

import (
	"strings"

	"github.com/sentinelml/toxguard/pkg/classify"
)

// AdapterSource hands out the two classifier adapters. The model
// registry implements it; tests substitute deterministic stubs.
type AdapterSource interface {
	// Adapters returns the harassment and misogyny classifiers, or an
	// error wrapping classify.ErrModelUnavailable when either is not
	// loaded. A verdict requires both signals: there is no silent
	// one-model result.
	Adapters() (harassment, misogyny classify.Classifier, err error)
}

// Scorer computes the combined score, boolean verdicts and risk tier
// for one text.
type Scorer struct {
	models AdapterSource
	cfg    ScoringConfig
}

// NewScorer validates the configuration and returns a scorer. An
// invalid configuration is a *ConfigurationError and must prevent the
// engine from starting.
func NewScorer(models AdapterSource, cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{models: models, cfg: cfg}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// ScoreOne scores a single comment. Blank input is a *ValidationError;
// a missing adapter surfaces classify.ErrModelUnavailable. Errors are
// never swallowed into a default score.
func (s *Scorer) ScoreOne(text string) (*ScoreResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("text must be a non-empty string")
	}

	harassment, misogyny, err := s.models.Adapters()
	if err != nil {
		return nil, err
	}

	harassmentScore, err := harassment.Score(text)
	if err != nil {
		return nil, err
	}
	misogynyScore, err := misogyny.Score(text)
	if err != nil {
		return nil, err
	}

	combined := s.cfg.HarassmentWeight*harassmentScore + s.cfg.MisogynyWeight*misogynyScore

	return &ScoreResult{
		Text:                  text,
		HarassmentScore:       harassmentScore,
		MisogynyScore:         misogynyScore,
		CombinedToxicityScore: combined,
		IsHarassment:          harassmentScore >= s.cfg.CategoryThreshold,
		IsMisogyny:            misogynyScore >= s.cfg.CategoryThreshold,
		IsToxic:               combined >= s.cfg.ToxicThreshold,
		RiskLevel:             RiskLevelFor(combined),
		Details: &ScoreDetails{
			HarassmentModel: modelLabel(harassment),
			MisogynyModel:   modelLabel(misogyny),
		},
	}, nil
}

// modelLabel builds the "name@version" tag reported in result details.
func modelLabel(c classify.Classifier) string {
	info := c.Info()
	if info.Version == "" {
		return info.Name
	}
	return info.Name + "@" + info.Version
}
