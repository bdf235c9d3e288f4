package engine

import (
	"fmt"
	"math"
	"strings"
)

// MaxBatchSize caps a single scoring batch. Larger workloads are split
// by the caller; the cap bounds per-request memory and latency.
const MaxBatchSize = 100

// FilterCriterion selects which score FilterByThreshold compares.
type FilterCriterion string

const (
	// FilterAll compares the combined toxicity score.
	FilterAll FilterCriterion = "all"
	// FilterHarassment compares the harassment score.
	FilterHarassment FilterCriterion = "harassment"
	// FilterMisogyny compares the misogyny score.
	FilterMisogyny FilterCriterion = "misogyny"
)

// ParseFilterCriterion validates a caller-supplied criterion string.
// An empty string means FilterAll.
func ParseFilterCriterion(s string) (FilterCriterion, error) {
	switch FilterCriterion(strings.ToLower(s)) {
	case "":
		return FilterAll, nil
	case FilterAll:
		return FilterAll, nil
	case FilterHarassment:
		return FilterHarassment, nil
	case FilterMisogyny:
		return FilterMisogyny, nil
	}
	return "", NewValidationError(fmt.Sprintf(
		"filter criterion must be one of: all, harassment, misogyny; got %q", s))
}

// Coordinator runs the scorer over many texts and aggregates results.
// Batch items are scored sequentially within one call; concurrency
// lives at the request level, not inside a batch.
type Coordinator struct {
	scorer *Scorer
}

// NewCoordinator returns a coordinator over the given scorer.
func NewCoordinator(scorer *Scorer) *Coordinator {
	return &Coordinator{scorer: scorer}
}

// ScoreMany scores an ordered batch, one result per input in input
// order. Validation is all-or-nothing: a blank item, an empty batch or
// an oversized batch rejects the whole request with a *ValidationError
// before any text is scored.
func (c *Coordinator) ScoreMany(texts []string) ([]*ScoreResult, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([]*ScoreResult, 0, len(texts))
	for _, text := range texts {
		result, err := c.scorer.ScoreOne(text)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ValidateBatch checks batch shape and per-item content without scoring
// anything. Exposed so transport layers can pre-validate.
func ValidateBatch(texts []string) error {
	if len(texts) == 0 {
		return NewValidationError("texts cannot be empty")
	}
	if len(texts) > MaxBatchSize {
		return NewValidationError(fmt.Sprintf(
			"maximum %d texts allowed per batch, got %d", MaxBatchSize, len(texts)))
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return &ValidationError{Reason: "text must be a non-empty string", Index: i}
		}
	}
	return nil
}

// ComputeStatistics aggregates a sequence of results. Pure; an empty
// sequence yields all-zero counts and a toxicity rate of 0.0.
func ComputeStatistics(results []*ScoreResult) BatchStatistics {
	stats := BatchStatistics{
		RiskDistribution: make(map[RiskLevel]int, 4),
	}
	for _, level := range AllRiskLevels() {
		stats.RiskDistribution[level] = 0
	}

	for _, r := range results {
		stats.TotalComments++
		if r.IsToxic {
			stats.ToxicComments++
		}
		if r.IsHarassment {
			stats.HarassmentCount++
		}
		if r.IsMisogyny {
			stats.MisogynyCount++
		}
		stats.RiskDistribution[r.RiskLevel]++
	}

	if stats.TotalComments > 0 {
		stats.ToxicityRate = float64(stats.ToxicComments) / float64(stats.TotalComments)
	}
	return stats
}

// ValidateThreshold checks a caller-supplied filter threshold. Exposed
// so transport layers can reject bad requests before scoring anything.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return NewValidationError(fmt.Sprintf(
			"threshold must be in [0,1], got %g", threshold))
	}
	return nil
}

// FilterByThreshold selects results whose chosen score meets or exceeds
// threshold, preserving input order and reporting each match's
// zero-based index in the original sequence.
func FilterByThreshold(results []*ScoreResult, threshold float64, criterion FilterCriterion) ([]FilteredResult, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	var pick func(*ScoreResult) float64
	switch criterion {
	case FilterAll:
		pick = func(r *ScoreResult) float64 { return r.CombinedToxicityScore }
	case FilterHarassment:
		pick = func(r *ScoreResult) float64 { return r.HarassmentScore }
	case FilterMisogyny:
		pick = func(r *ScoreResult) float64 { return r.MisogynyScore }
	default:
		return nil, NewValidationError(fmt.Sprintf(
			"filter criterion must be one of: all, harassment, misogyny; got %q", criterion))
	}

	filtered := make([]FilteredResult, 0)
	for i, r := range results {
		if pick(r) >= threshold {
			filtered = append(filtered, FilteredResult{Index: i, Result: r})
		}
	}
	return filtered, nil
}
