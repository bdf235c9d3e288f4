package classify

// hugot.go - ONNX classifier adapter using Hugot
//
// Wraps one trained text-classification model (harassment or misogyny)
// behind the Classifier interface. Uses ONNX Runtime when the shared
// library is available and falls back to the pure Go backend otherwise.

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotConfig configures one ONNX classifier.
type HugotConfig struct {
	// Name identifies the category this model scores ("harassment",
	// "misogyny"). Also used as the pipeline name.
	Name string

	// ModelPath is the directory holding model.onnx plus tokenizer files.
	ModelPath string

	// PositiveLabel is the output label whose probability is reported as
	// the toxicity score (e.g. "toxic", "LABEL_1").
	PositiveLabel string

	// OnnxLibraryPath points at the ONNX Runtime shared library. Empty
	// means pure Go backend only.
	OnnxLibraryPath string

	// MaxLength is the rune budget before head truncation. Zero means
	// DefaultMaxLength.
	MaxLength int
}

// HugotClassifier runs one ONNX text-classification model. It owns its
// session for the lifetime of the classifier; Close releases it.
type HugotClassifier struct {
	cfg      HugotConfig
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	info     ModelInfo
}

// NewHugotClassifier loads the model at cfg.ModelPath and returns a
// ready classifier, or an error if the artifacts are missing or invalid.
func NewHugotClassifier(cfg HugotConfig) (*HugotClassifier, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("classifier name is required")
	}
	if cfg.PositiveLabel == "" {
		return nil, fmt.Errorf("positive label is required for model %s", cfg.Name)
	}
	if _, err := os.Stat(filepath.Join(cfg.ModelPath, "model.onnx")); err != nil {
		return nil, fmt.Errorf("model artifacts not found at %s: %w", cfg.ModelPath, err)
	}

	session, err := newSession(cfg.OnnxLibraryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for model %s: %w", cfg.Name, err)
	}

	pipelineCfg := hugot.TextClassificationConfig{
		ModelPath: cfg.ModelPath,
		Name:      cfg.Name,
	}
	pipeline, err := hugot.NewPipeline(session, pipelineCfg)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("failed to create pipeline for model %s: %w", cfg.Name, err)
	}

	labels, version := readModelConfig(cfg.ModelPath)

	log.Printf("Classifier %s initialized (model: %s)", cfg.Name, cfg.ModelPath)

	return &HugotClassifier{
		cfg:      cfg,
		session:  session,
		pipeline: pipeline,
		info: ModelInfo{
			Name:    cfg.Name,
			Loaded:  true,
			Labels:  labels,
			Version: version,
		},
	}, nil
}

// newSession creates the Hugot session, preferring the ONNX Runtime
// backend and falling back to pure Go.
func newSession(onnxLibraryPath string) (*hugot.Session, error) {
	if onnxLibraryPath != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(onnxLibraryPath))
		if err == nil {
			return session, nil
		}
		log.Printf("ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	return session, nil
}

// Score runs inference and returns the positive-label probability.
func (c *HugotClassifier) Score(text string) (float64, error) {
	if c == nil || c.pipeline == nil {
		return 0, ErrModelUnavailable
	}

	prepared, _ := PrepareText(text, c.cfg.MaxLength)

	out, err := c.pipeline.RunPipeline([]string{prepared})
	if err != nil {
		return 0, &InferenceError{Model: c.cfg.Name, Err: err}
	}
	if len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return 0, &InferenceError{Model: c.cfg.Name, Err: fmt.Errorf("empty classification output")}
	}

	score, err := scoreForLabel(out.ClassificationOutputs[0], c.cfg.PositiveLabel)
	if err != nil {
		return 0, &InferenceError{Model: c.cfg.Name, Err: err}
	}
	return score, nil
}

// Info reports load-time metadata without triggering inference.
func (c *HugotClassifier) Info() ModelInfo {
	return c.info
}

// Close releases the underlying session.
func (c *HugotClassifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	c.pipeline = nil
	return err
}

// scoreForLabel extracts the probability of one label from a model's
// per-label outputs, clamped to [0,1].
func scoreForLabel(outputs []pipelines.ClassificationOutput, label string) (float64, error) {
	for _, out := range outputs {
		if out.Label == label {
			return clamp01(float64(out.Score)), nil
		}
	}
	return 0, fmt.Errorf("label %q not present in model output", label)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// modelConfigFile is the subset of a HuggingFace config.json the
// registry reports as metadata.
type modelConfigFile struct {
	ID2Label            map[string]string `json:"id2label"`
	TransformersVersion string            `json:"transformers_version"`
	ModelVersion        string            `json:"model_version"`
}

// readModelConfig extracts labels and a version string from the model's
// config.json. Missing or malformed files degrade to empty metadata
// rather than failing the load: the ONNX graph, not config.json, decides
// whether the model can score.
func readModelConfig(modelPath string) (labels []string, version string) {
	data, err := os.ReadFile(filepath.Join(modelPath, "config.json"))
	if err != nil {
		return nil, ""
	}

	var cfg modelConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, ""
	}

	// id2label keys are stringified indices; report labels in index order.
	ids := make([]int, 0, len(cfg.ID2Label))
	byID := make(map[int]string, len(cfg.ID2Label))
	for k, v := range cfg.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		byID[id] = v
	}
	sort.Ints(ids)
	for _, id := range ids {
		labels = append(labels, byID[id])
	}

	version = cfg.ModelVersion
	if version == "" {
		version = cfg.TransformersVersion
	}
	return labels, version
}
