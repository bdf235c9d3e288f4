package engine

import (
	"context"

	"github.com/sentinelml/toxguard/pkg/classify"
)

// ModelSource is what the service needs from the model registry.
type ModelSource interface {
	AdapterSource
	IsReady() bool
	ModelsInfo() []classify.ModelInfo
}

// ResultCache avoids recomputing verdicts for texts seen recently. It is
// an ephemeral optimization: a miss, a nil cache or a failing backend
// all fall through to inference, and identical input always yields an
// identical result either way.
type ResultCache interface {
	Get(ctx context.Context, text string) (*ScoreResult, bool)
	Put(ctx context.Context, text string, result *ScoreResult)
}

// Service bundles the registry, scorer and batch coordinator behind the
// operations the transport layer consumes.
type Service struct {
	models ModelSource
	scorer *Scorer
	coord  *Coordinator
	cache  ResultCache
}

// NewService wires a service over a model source. cache may be nil.
// Configuration is validated here; a *ConfigurationError prevents the
// engine from ever reaching a ready state.
func NewService(models ModelSource, cfg ScoringConfig, cache ResultCache) (*Service, error) {
	scorer, err := NewScorer(models, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		models: models,
		scorer: scorer,
		coord:  NewCoordinator(scorer),
		cache:  cache,
	}, nil
}

// IsReady reports whether both classifiers are loaded.
func (s *Service) IsReady() bool {
	return s.models.IsReady()
}

// ModelsInfo reports per-model readiness and metadata without
// triggering inference.
func (s *Service) ModelsInfo() []classify.ModelInfo {
	return s.models.ModelsInfo()
}

// Config returns the active scoring configuration.
func (s *Service) Config() ScoringConfig {
	return s.scorer.Config()
}

// ScoreOne scores a single comment, consulting the cache first. The
// cache is only consulted while the registry is ready: a degraded
// engine must refuse to score, not serve leftover verdicts.
func (s *Service) ScoreOne(ctx context.Context, text string) (*ScoreResult, error) {
	if s.cache != nil && s.models.IsReady() {
		if result, ok := s.cache.Get(ctx, text); ok {
			return result, nil
		}
	}

	result, err := s.scorer.ScoreOne(text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(ctx, text, result)
	}
	return result, nil
}

// ScoreMany scores an ordered batch, one result per input in input
// order. Validation is all-or-nothing and runs before any inference or
// cache lookup.
func (s *Service) ScoreMany(ctx context.Context, texts []string) ([]*ScoreResult, error) {
	if s.cache == nil {
		return s.coord.ScoreMany(texts)
	}

	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([]*ScoreResult, 0, len(texts))
	for _, text := range texts {
		result, err := s.ScoreOne(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ComputeStatistics aggregates a sequence of results.
func (s *Service) ComputeStatistics(results []*ScoreResult) BatchStatistics {
	return ComputeStatistics(results)
}

// FilterByThreshold selects results whose chosen score meets or exceeds
// threshold, preserving input order.
func (s *Service) FilterByThreshold(results []*ScoreResult, threshold float64, criterion FilterCriterion) ([]FilteredResult, error) {
	return FilterByThreshold(results, threshold, criterion)
}
