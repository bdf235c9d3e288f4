package engine

import (
	"context"
	"fmt"

	"github.com/sentinelml/toxguard/pkg/classify"
)

// stubClassifier returns a fixed score, optionally failing, and counts
// inference calls.
type stubClassifier struct {
	name  string
	score float64
	err   error
	calls int
}

func (s *stubClassifier) Score(text string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

func (s *stubClassifier) Info() classify.ModelInfo {
	return classify.ModelInfo{Name: s.name, Loaded: true, Version: "stub"}
}

// stubSource hands out two stub classifiers, or an unavailability error.
type stubSource struct {
	harassment *stubClassifier
	misogyny   *stubClassifier
	ready      bool
}

func newStubSource(harassmentScore, misogynyScore float64) *stubSource {
	return &stubSource{
		harassment: &stubClassifier{name: "harassment", score: harassmentScore},
		misogyny:   &stubClassifier{name: "misogyny", score: misogynyScore},
		ready:      true,
	}
}

func (s *stubSource) Adapters() (classify.Classifier, classify.Classifier, error) {
	if !s.ready {
		return nil, nil, fmt.Errorf("registry is not ready: %w", classify.ErrModelUnavailable)
	}
	return s.harassment, s.misogyny, nil
}

func (s *stubSource) IsReady() bool {
	return s.ready
}

func (s *stubSource) ModelsInfo() []classify.ModelInfo {
	return []classify.ModelInfo{s.harassment.Info(), s.misogyny.Info()}
}

// mapCache is an in-memory ResultCache for service tests.
type mapCache struct {
	entries map[string]*ScoreResult
	puts    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*ScoreResult)}
}

func (c *mapCache) Get(ctx context.Context, text string) (*ScoreResult, bool) {
	r, ok := c.entries[text]
	return r, ok
}

func (c *mapCache) Put(ctx context.Context, text string, result *ScoreResult) {
	c.puts++
	c.entries[text] = result
}
