// Package classify wraps trained text-classification models behind a
// single text -> probability capability. The rest of the engine only
// sees the Classifier interface, so tests can substitute deterministic
// stubs without loading real model artifacts.
package classify

import "errors"

// ErrModelUnavailable is returned when a classifier is asked to score
// text but its underlying model failed to load.
var ErrModelUnavailable = errors.New("classifier model is not loaded")

// InferenceError reports that a loaded model failed on a structurally
// valid input. The engine surfaces it as an internal failure and never
// retries automatically.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return "inference failed for model " + e.Model + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// ModelInfo describes one classifier's readiness and metadata. Set once
// at load time; read-only afterwards.
type ModelInfo struct {
	Name    string   `json:"name"`
	Loaded  bool     `json:"loaded"`
	Labels  []string `json:"labels"`
	Version string   `json:"version"`
	Error   string   `json:"error,omitempty"`
}

// Classifier scores one text for one category.
type Classifier interface {
	// Score returns the model's toxicity probability in [0,1] for the
	// given non-empty text. Inference is read-only: a call never mutates
	// classifier state in a way that influences subsequent calls.
	Score(text string) (float64, error)

	// Info reports the classifier's load-time metadata without
	// triggering inference.
	Info() ModelInfo
}
