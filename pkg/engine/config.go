package engine

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// weightSumTolerance absorbs float rounding when checking that the two
// category weights sum to 1.0.
const weightSumTolerance = 1e-6

// ScoringConfig holds the thresholds and weights the scorer applies.
// These are configuration, not constants: deployments tune them via YAML
// or environment without touching the combination algorithm.
type ScoringConfig struct {
	// HarassmentWeight and MisogynyWeight control the convex combination
	// of the two component scores. They must sum to 1.0.
	HarassmentWeight float64 `yaml:"harassment_weight" json:"harassment_weight"`
	MisogynyWeight   float64 `yaml:"misogyny_weight" json:"misogyny_weight"`

	// ToxicThreshold is the minimum combined score at which a comment is
	// flagged toxic.
	ToxicThreshold float64 `yaml:"toxic_threshold" json:"toxic_threshold"`

	// CategoryThreshold is the minimum per-category score at which the
	// is_harassment / is_misogyny booleans flip.
	CategoryThreshold float64 `yaml:"per_category_threshold" json:"per_category_threshold"`
}

// DefaultScoringConfig returns the equal-weight defaults. The 0.5/0.5
// split is a design choice, not a measured calibration.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HarassmentWeight:  0.5,
		MisogynyWeight:    0.5,
		ToxicThreshold:    0.5,
		CategoryThreshold: 0.5,
	}
}

// Validate checks the configuration and returns a *ConfigurationError
// describing the first violation found.
func (c ScoringConfig) Validate() error {
	// NaN compares false against every bound, so reject non-finite
	// values explicitly before the range checks.
	for name, v := range map[string]float64{
		"harassment_weight":      c.HarassmentWeight,
		"misogyny_weight":        c.MisogynyWeight,
		"toxic_threshold":        c.ToxicThreshold,
		"per_category_threshold": c.CategoryThreshold,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Reason: fmt.Sprintf(
				"%s must be a finite number, got %g", name, v)}
		}
	}
	if c.HarassmentWeight < 0 || c.MisogynyWeight < 0 {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"weights must be non-negative, got harassment=%g misogyny=%g",
			c.HarassmentWeight, c.MisogynyWeight)}
	}
	if sum := c.HarassmentWeight + c.MisogynyWeight; math.Abs(sum-1.0) > weightSumTolerance {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"harassment_weight + misogyny_weight must equal 1.0, got %g", sum)}
	}
	if c.ToxicThreshold < 0 || c.ToxicThreshold > 1 {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"toxic_threshold must be in [0,1], got %g", c.ToxicThreshold)}
	}
	if c.CategoryThreshold < 0 || c.CategoryThreshold > 1 {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"per_category_threshold must be in [0,1], got %g", c.CategoryThreshold)}
	}
	return nil
}

// LoadScoringConfig reads a YAML scoring file over the defaults. A
// missing file is not an error: deployments without a tuning file run on
// the equal-weight defaults.
func LoadScoringConfig(path string) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read scoring config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Fingerprint returns a stable digest input for the configuration, used
// to key cached results so a reconfiguration never serves stale verdicts.
func (c ScoringConfig) Fingerprint() string {
	return fmt.Sprintf("w=%.6f/%.6f;toxic=%.6f;cat=%.6f",
		c.HarassmentWeight, c.MisogynyWeight, c.ToxicThreshold, c.CategoryThreshold)
}
