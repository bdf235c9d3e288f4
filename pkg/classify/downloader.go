package classify

// downloader.go - Auto-download classifier artifacts
//
// Lets a fresh deployment pull the harassment/misogyny ONNX models from
// HuggingFace on first start instead of requiring a setup script. Only
// the minimal files needed for ONNX inference are fetched.

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// HuggingFaceBaseURL is the base URL for model downloads.
const HuggingFaceBaseURL = "https://huggingface.co"

// artifactFiles lists the files required for ONNX inference.
var artifactFiles = []struct {
	Name     string
	Required bool
}{
	{"model.onnx", true},
	{"tokenizer.json", true},
	{"config.json", true},
	{"tokenizer_config.json", false},
	{"special_tokens_map.json", false},
}

// downloadMu prevents concurrent downloads into the same directory.
var downloadMu sync.Mutex

// ModelExists reports whether a scorable model lives at modelPath.
// Both model.onnx and tokenizer.json must be present.
func ModelExists(modelPath string) bool {
	for _, name := range []string{"model.onnx", "tokenizer.json"} {
		if _, err := os.Stat(filepath.Join(modelPath, name)); err != nil {
			return false
		}
	}
	return true
}

// EnsureModelDownloaded downloads repoID into modelPath unless a model
// is already there. Safe to call from concurrent starts.
func EnsureModelDownloaded(repoID, modelPath string) error {
	if ModelExists(modelPath) {
		return nil
	}

	downloadMu.Lock()
	defer downloadMu.Unlock()

	// Double-check after acquiring the lock.
	if ModelExists(modelPath) {
		return nil
	}

	log.Printf("Model not found at %s. Downloading %s...", modelPath, repoID)

	if err := os.MkdirAll(modelPath, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	baseURL := fmt.Sprintf("%s/%s/resolve/main", HuggingFaceBaseURL, repoID)

	for _, file := range artifactFiles {
		destFile := filepath.Join(modelPath, file.Name)
		if _, err := os.Stat(destFile); err == nil {
			continue
		}

		log.Printf("  downloading %s", file.Name)
		if err := downloadFile(fmt.Sprintf("%s/%s", baseURL, file.Name), destFile); err != nil {
			if file.Required {
				return fmt.Errorf("failed to download %s: %w", file.Name, err)
			}
			log.Printf("  optional file %s not available: %v", file.Name, err)
		}
	}

	log.Printf("Model %s downloaded to %s", repoID, modelPath)
	return nil
}

// downloadFile fetches url into destPath via a temp file and atomic
// rename so a crashed download never leaves a half-written model.
func downloadFile(url, destPath string) error {
	tmpPath := destPath + ".tmp"
	defer func() { _ = os.Remove(tmpPath) }()

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = out.Close() }()

	resp, err := http.Get(url) //nolint:gosec // URL is built from configured repo IDs
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	// Close before rename (required on Windows).
	_ = out.Close()

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}
