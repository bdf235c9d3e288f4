// Package registry owns the two classifier adapters for the lifetime of
// the process. Loading and reloading are the only mutating operations
// and run under a write lock, so no scoring call ever observes a
// half-loaded adapter.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/sentinelml/toxguard/pkg/classify"
)

// Model names as reported in ModelsInfo.
const (
	ModelHarassment = "harassment"
	ModelMisogyny   = "misogyny"
)

// Loader loads one classifier from its configured artifact location.
// Production wires hugot-backed loaders; tests inject stubs.
type Loader func(ctx context.Context) (classify.Classifier, error)

// Registry loads and holds both adapters. The zero value is not usable;
// construct with New.
type Registry struct {
	mu sync.RWMutex

	loadHarassment Loader
	loadMisogyny   Loader

	harassment classify.Classifier
	misogyny   classify.Classifier

	harassmentInfo classify.ModelInfo
	misogynyInfo   classify.ModelInfo

	ready bool
}

// New returns an uninitialized registry over the two loaders.
func New(loadHarassment, loadMisogyny Loader) *Registry {
	return &Registry{
		loadHarassment: loadHarassment,
		loadMisogyny:   loadMisogyny,
		harassmentInfo: classify.ModelInfo{Name: ModelHarassment},
		misogynyInfo:   classify.ModelInfo{Name: ModelMisogyny},
	}
}

// Initialize loads both adapters, replacing any previously loaded ones.
// It returns nil only if both loaded. Partial success still swaps in the
// adapter that did load, so ModelsInfo reports per-model status
// accurately, but the registry stays not ready. Safe to call again:
// re-initialization atomically replaces the previous adapters.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	newHarassment, errH := r.loadHarassment(ctx)
	newMisogyny, errM := r.loadMisogyny(ctx)

	closeClassifier(r.harassment)
	closeClassifier(r.misogyny)

	r.harassment = newHarassment
	r.misogyny = newMisogyny
	r.harassmentInfo = loadedInfo(ModelHarassment, newHarassment, errH)
	r.misogynyInfo = loadedInfo(ModelMisogyny, newMisogyny, errM)
	r.ready = errH == nil && errM == nil

	if errH != nil {
		errH = fmt.Errorf("%s model: %w", ModelHarassment, errH)
		log.Printf("Registry: %v", errH)
	}
	if errM != nil {
		errM = fmt.Errorf("%s model: %w", ModelMisogyny, errM)
		log.Printf("Registry: %v", errM)
	}
	if r.ready {
		log.Printf("Registry: both classifiers loaded")
	}

	return errors.Join(errH, errM)
}

// IsReady reports whether both adapters are loaded.
func (r *Registry) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// ModelsInfo reports per-model readiness and metadata without
// triggering inference.
func (r *Registry) ModelsInfo() []classify.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return []classify.ModelInfo{r.harassmentInfo, r.misogynyInfo}
}

// Adapters hands out both classifiers for a scoring call, or an error
// wrapping classify.ErrModelUnavailable when the registry is not ready.
func (r *Registry) Adapters() (classify.Classifier, classify.Classifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.ready {
		return nil, nil, fmt.Errorf("registry is not ready: %w", classify.ErrModelUnavailable)
	}
	return r.harassment, r.misogyny, nil
}

// Close releases both adapters.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	closeClassifier(r.harassment)
	closeClassifier(r.misogyny)
	r.harassment = nil
	r.misogyny = nil
	r.ready = false
	return nil
}

// loadedInfo builds the per-model status record after a load attempt.
func loadedInfo(name string, c classify.Classifier, err error) classify.ModelInfo {
	if err != nil || c == nil {
		info := classify.ModelInfo{Name: name, Loaded: false}
		if err != nil {
			info.Error = err.Error()
		}
		return info
	}
	info := c.Info()
	info.Name = name
	info.Loaded = true
	return info
}

// closeClassifier releases an adapter that supports closing.
func closeClassifier(c classify.Classifier) {
	if closer, ok := c.(io.Closer); ok && c != nil {
		if err := closer.Close(); err != nil {
			log.Printf("Registry: error closing classifier: %v", err)
		}
	}
}
