package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sentinelml/toxguard/pkg/classify"
	"github.com/sentinelml/toxguard/pkg/engine"
)

type stubClassifier struct {
	name  string
	score float64
	calls int
}

func (s *stubClassifier) Score(text string) (float64, error) {
	s.calls++
	return s.score, nil
}

func (s *stubClassifier) Info() classify.ModelInfo {
	return classify.ModelInfo{Name: s.name, Loaded: true, Version: "stub"}
}

type stubSource struct {
	harassment *stubClassifier
	misogyny   *stubClassifier
	ready      bool
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

func newTestServer(t *testing.T, harassmentScore, misogynyScore float64, ready bool) (*Server, *stubSource) {
	t.Helper()
	src := &stubSource{
		harassment: &stubClassifier{name: "harassment", score: harassmentScore},
		misogyny:   &stubClassifier{name: "misogyny", score: misogynyScore},
		ready:      ready,
	}
	svc, err := engine.NewService(src, engine.DefaultScoringConfig(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(svc), src
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("%s %s: decoding body: %v", method, path, err)
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 0.1, 0.1, true)

	resp, body := doJSON(t, s, http.MethodGet, "/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["models_loaded"] != true {
		t.Errorf("models_loaded = %v, want true", body["models_loaded"])
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHealthDegraded(t *testing.T) {
	s, _ := newTestServer(t, 0.1, 0.1, false)

	resp, body := doJSON(t, s, http.MethodGet, "/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["models_loaded"] != false {
		t.Errorf("models_loaded = %v, want false", body["models_loaded"])
	}
}

func TestModelsInfo(t *testing.T) {
	s, _ := newTestServer(t, 0.1, 0.1, true)

	resp, body := doJSON(t, s, http.MethodGet, "/api/models/info", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	models, ok := body["models"].([]any)
	if !ok || len(models) != 2 {
		t.Errorf("models = %v, want two entries", body["models"])
	}
}

func TestAnalyze(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze", `{"text":"you are pathetic"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := body["combined_toxicity_score"].(float64); got != 0.7 {
		t.Errorf("combined_toxicity_score = %g, want 0.7", got)
	}
	if body["is_toxic"] != true {
		t.Errorf("is_toxic = %v, want true", body["is_toxic"])
	}
	if body["risk_level"] != "high" {
		t.Errorf("risk_level = %v, want high", body["risk_level"])
	}
}

func TestAnalyzeBlankText(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	for _, payload := range []string{`{"text":""}`, `{"text":"   "}`, `{}`} {
		resp, body := doJSON(t, s, http.MethodPost, "/api/analyze", payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %s: status = %d, want 400", payload, resp.StatusCode)
		}
		if body["error"] == nil {
			t.Errorf("payload %s: expected an error message", payload)
		}
	}
}

func TestAnalyzeModelsNotReady(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, false)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/analyze", `{"text":"some comment"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	payload := `{"texts":["one","two","three"],"include_statistics":true}`
	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze/batch", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	results, ok := body["results"].([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("results = %v, want 3 entries", body["results"])
	}
	first := results[0].(map[string]any)
	if first["text"] != "one" {
		t.Errorf("first result text = %v, want input order preserved", first["text"])
	}

	stats, ok := body["statistics"].(map[string]any)
	if !ok {
		t.Fatal("expected statistics in response")
	}
	if stats["total_comments"].(float64) != 3 {
		t.Errorf("total_comments = %v, want 3", stats["total_comments"])
	}
	if stats["toxicity_rate"].(float64) != 1.0 {
		t.Errorf("toxicity_rate = %v, want 1.0", stats["toxicity_rate"])
	}
	if body["batch_id"] == nil || body["batch_id"] == "" {
		t.Error("expected a batch_id")
	}
}

func TestAnalyzeBatchWithoutStatistics(t *testing.T) {
	s, _ := newTestServer(t, 0.1, 0.1, true)

	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze/batch", `{"texts":["one"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, present := body["statistics"]; present {
		t.Error("statistics should only appear when requested")
	}
}

func TestAnalyzeBatchBlankItem(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze/batch", `{"texts":["ok",""]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "index 1") {
		t.Errorf("error %q should name the offending index", msg)
	}
	if _, present := body["results"]; present {
		t.Error("a rejected batch must not return partial results")
	}
}

func TestFilter(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	payload := `{"texts":["one","two"],"threshold":0.0,"filter_type":"all"}`
	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze/filter", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["total_comments"].(float64) != 2 {
		t.Errorf("total_comments = %v, want 2", body["total_comments"])
	}
	// Threshold 0.0 keeps every comment.
	if body["toxic_comments"].(float64) != 2 {
		t.Errorf("toxic_comments = %v, want 2", body["toxic_comments"])
	}
	filtered, ok := body["filtered_results"].([]any)
	if !ok || len(filtered) != 2 {
		t.Fatalf("filtered_results = %v, want 2 entries", body["filtered_results"])
	}
	first := filtered[0].(map[string]any)
	if first["index"].(float64) != 0 {
		t.Errorf("first match index = %v, want 0", first["index"])
	}
}

func TestFilterDefaults(t *testing.T) {
	s, _ := newTestServer(t, 0.8, 0.6, true)

	// Omitted threshold defaults to 0.5, omitted filter_type to "all";
	// combined score 0.7 passes.
	resp, body := doJSON(t, s, http.MethodPost, "/api/analyze/filter", `{"texts":["one"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["threshold"].(float64) != 0.5 {
		t.Errorf("threshold = %v, want default 0.5", body["threshold"])
	}
	if body["filter_type"] != "all" {
		t.Errorf("filter_type = %v, want all", body["filter_type"])
	}
	if body["toxic_comments"].(float64) != 1 {
		t.Errorf("toxic_comments = %v, want 1", body["toxic_comments"])
	}
}

func TestFilterInvalidThreshold(t *testing.T) {
	s, src := newTestServer(t, 0.8, 0.6, true)

	payload := `{"texts":["one"],"threshold":1.01}`
	resp, _ := doJSON(t, s, http.MethodPost, "/api/analyze/filter", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if src.harassment.calls != 0 || src.misogyny.calls != 0 {
		t.Errorf("inference calls = %d/%d, want 0/0 for a rejected threshold",
			src.harassment.calls, src.misogyny.calls)
	}
}

func TestFilterInvalidCriterion(t *testing.T) {
	s, src := newTestServer(t, 0.8, 0.6, true)

	payload := `{"texts":["one"],"filter_type":"toxicity"}`
	resp, _ := doJSON(t, s, http.MethodPost, "/api/analyze/filter", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if src.harassment.calls != 0 || src.misogyny.calls != 0 {
		t.Errorf("inference calls = %d/%d, want 0/0 for a rejected criterion",
			src.harassment.calls, src.misogyny.calls)
	}
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, 0.1, 0.1, true)

	resp, body := doJSON(t, s, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["endpoints"] == nil {
		t.Error("index should list the available endpoints")
	}
}
