package engine

// RiskLevel is the discrete triage tier derived from the combined
// toxicity score. Tiering is independent of the toxic threshold so that
// reconfiguring the toxic/not-toxic boolean never shifts tier boundaries.
type RiskLevel string

const (
	// RiskLow covers combined scores in [0, 0.25)
	RiskLow RiskLevel = "low"
	// RiskMedium covers combined scores in [0.25, 0.5)
	RiskMedium RiskLevel = "medium"
	// RiskHigh covers combined scores in [0.5, 0.75)
	RiskHigh RiskLevel = "high"
	// RiskCritical covers combined scores in [0.75, 1.0]
	RiskCritical RiskLevel = "critical"
)

// String returns the string representation of a RiskLevel.
func (r RiskLevel) String() string {
	return string(r)
}

// AllRiskLevels returns the tiers in ascending severity order.
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// RiskLevelFor buckets a combined toxicity score into its tier.
// Buckets are closed on the lower bound and open on the upper, except the
// final bucket which is closed on both ends.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 0.75:
		return RiskCritical
	case score >= 0.5:
		return RiskHigh
	case score >= 0.25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ScoreDetails carries per-model context for a single verdict.
type ScoreDetails struct {
	HarassmentModel string `json:"harassment_model,omitempty"`
	MisogynyModel   string `json:"misogyny_model,omitempty"`
}

// ScoreResult is the full verdict for one comment. All scores are in
// [0,1]; the combined score is a convex combination of the two component
// scores. Created fresh per scoring call and owned by the caller.
type ScoreResult struct {
	Text                  string        `json:"text"`
	HarassmentScore       float64       `json:"harassment_score"`
	MisogynyScore         float64       `json:"misogyny_score"`
	CombinedToxicityScore float64       `json:"combined_toxicity_score"`
	IsHarassment          bool          `json:"is_harassment"`
	IsMisogyny            bool          `json:"is_misogyny"`
	IsToxic               bool          `json:"is_toxic"`
	RiskLevel             RiskLevel     `json:"risk_level"`
	Details               *ScoreDetails `json:"details,omitempty"`
}

// BatchStatistics aggregates a sequence of results. Derived entirely
// from the results it was computed over; never persisted.
type BatchStatistics struct {
	TotalComments    int               `json:"total_comments"`
	ToxicComments    int               `json:"toxic_comments"`
	HarassmentCount  int               `json:"harassment_count"`
	MisogynyCount    int               `json:"misogyny_count"`
	ToxicityRate     float64           `json:"toxicity_rate"`
	RiskDistribution map[RiskLevel]int `json:"risk_distribution"`
}

// FilteredResult pairs a retained result with its zero-based index in
// the original, unfiltered sequence.
type FilteredResult struct {
	Index  int          `json:"index"`
	Result *ScoreResult `json:"result"`
}
