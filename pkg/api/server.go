// Package api exposes the scoring engine over HTTP. It owns JSON
// shaping, status-code mapping and CORS; all scoring semantics live in
// the engine.
package api

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/sentinelml/toxguard/pkg/classify"
	"github.com/sentinelml/toxguard/pkg/engine"
)

// Name and Version identify the service in the index response.
const (
	Name    = "toxguard"
	Version = "1.0.0"
)

// Engine is the scoring surface the server consumes. *engine.Service
// satisfies it; tests may substitute a stub.
type Engine interface {
	IsReady() bool
	ModelsInfo() []classify.ModelInfo
	ScoreOne(ctx context.Context, text string) (*engine.ScoreResult, error)
	ScoreMany(ctx context.Context, texts []string) ([]*engine.ScoreResult, error)
	ComputeStatistics(results []*engine.ScoreResult) engine.BatchStatistics
	FilterByThreshold(results []*engine.ScoreResult, threshold float64, criterion engine.FilterCriterion) ([]engine.FilteredResult, error)
}

// Server is the HTTP collaborator around the engine.
type Server struct {
	app    *fiber.App
	engine Engine
}

// New builds the server and registers all routes.
func New(eng Engine) *Server {
	app := fiber.New(fiber.Config{
		AppName: Name + " " + Version,
	})

	app.Use(requestid.New())
	app.Use(cors.New())

	s := &Server{app: app, engine: eng}

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/models/info", s.handleModelsInfo)
	api.Post("/analyze", s.handleAnalyze)
	api.Post("/analyze/batch", s.handleAnalyzeBatch)
	api.Post("/analyze/filter", s.handleFilter)

	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or is shut down.
func (s *Server) Listen(addr string) error {
	log.Printf("API listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleIndex(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":        "Harassment & Misogyny Scoring API",
		"version":     Version,
		"description": "Scores free-text comments for harassment and misogyny and returns calibrated risk signals",
		"endpoints": fiber.Map{
			"health":         "GET /api/health",
			"models_info":    "GET /api/models/info",
			"analyze_single": "POST /api/analyze",
			"analyze_batch":  "POST /api/analyze/batch",
			"filter_toxic":   "POST /api/analyze/filter",
		},
	})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	status := "healthy"
	if !s.engine.IsReady() {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":        status,
		"models_loaded": s.engine.IsReady(),
	})
}

func (s *Server) handleModelsInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"models": s.engine.ModelsInfo(),
	})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyze(c fiber.Ctx) error {
	var req analyzeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "request body must be JSON with a \"text\" field")
	}

	result, err := s.engine.ScoreOne(c.Context(), req.Text)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

type batchRequest struct {
	Texts             []string `json:"texts"`
	IncludeStatistics bool     `json:"include_statistics"`
}

func (s *Server) handleAnalyzeBatch(c fiber.Ctx) error {
	var req batchRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "request body must be JSON with a \"texts\" field")
	}

	results, err := s.engine.ScoreMany(c.Context(), req.Texts)
	if err != nil {
		return errorResponse(c, err)
	}

	resp := fiber.Map{
		"batch_id": newBatchID(),
		"results":  results,
	}
	if req.IncludeStatistics {
		resp["statistics"] = s.engine.ComputeStatistics(results)
	}
	return c.JSON(resp)
}

type filterRequest struct {
	Texts      []string `json:"texts"`
	Threshold  *float64 `json:"threshold"`
	FilterType string   `json:"filter_type"`
}

func (s *Server) handleFilter(c fiber.Ctx) error {
	var req filterRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "request body must be JSON with a \"texts\" field")
	}

	// Reject bad filter parameters before running any inference.
	threshold := 0.5
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if err := engine.ValidateThreshold(threshold); err != nil {
		return errorResponse(c, err)
	}
	criterion, err := engine.ParseFilterCriterion(req.FilterType)
	if err != nil {
		return errorResponse(c, err)
	}

	results, err := s.engine.ScoreMany(c.Context(), req.Texts)
	if err != nil {
		return errorResponse(c, err)
	}
	filtered, err := s.engine.FilterByThreshold(results, threshold, criterion)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"batch_id":         newBatchID(),
		"total_comments":   len(results),
		"toxic_comments":   len(filtered),
		"threshold":        threshold,
		"filter_type":      criterion,
		"filtered_results": filtered,
	})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// errorResponse maps engine errors onto HTTP statuses: validation
// failures are 400, unavailable models 503, everything else (including
// inference failures) 500.
func errorResponse(c fiber.Ctx, err error) error {
	var validationErr *engine.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
	}
	if errors.Is(err, classify.ErrModelUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "models are not initialized",
		})
	}

	var inferenceErr *classify.InferenceError
	if errors.As(err, &inferenceErr) {
		log.Printf("API request %s: %v", requestid.FromContext(c), inferenceErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "inference failed",
		})
	}

	log.Printf("API request %s: unexpected error: %v", requestid.FromContext(c), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
