package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/generator"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/scheduler"
)

// Generator runs the AI generation chains.
type Generator interface {
	GeneratePost(ctx context.Context, req generator.PostRequest) (*generator.PostResult, error)
	GenerateRecipe(ctx context.Context, req generator.RecipeRequest) (*generator.RecipeResult, error)
	GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResult, error)
}

// DailyRunner creates the daily post when none exists yet.
type DailyRunner interface {
	Run(ctx context.Context) (*scheduler.Outcome, error)
}

// GenerationLogStore reads generation outcome records.
type GenerationLogStore interface {
	List(ctx context.Context, q models.GenerationLogQuery) ([]models.GenerationLog, int, error)
	Stats(ctx context.Context) (*models.GenerationStats, error)
}

// InferenceLogStore reads per-call provider records.
type InferenceLogStore interface {
	List(ctx context.Context, provider string, limit int) ([]models.InferenceLog, error)
}

// GenerationHandler serves the admin generation routes and the daily cron.
type GenerationHandler struct {
	gen        Generator
	daily      DailyRunner
	logs       GenerationLogStore
	inferences InferenceLogStore
	logger     *slog.Logger
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(gen Generator, daily DailyRunner, logs GenerationLogStore, inferences InferenceLogStore, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		gen:        gen,
		daily:      daily,
		logs:       logs,
		inferences: inferences,
		logger:     logger,
	}
}

// GeneratePostRequest is the body of POST /api/ai/generate-post.
type GeneratePostRequest struct {
	Topic      string `json:"topic"`
	CategoryID string `json:"categoryId"`
	UseAIImage *bool  `json:"useAiImage"`
	Provider   string `json:"provider"`
}

// GenerateRecipeRequest is the body of POST /api/ai/generate-recipe.
type GenerateRecipeRequest struct {
	Topic      string `json:"topic"`
	DietType   string `json:"dietType"`
	CategoryID string `json:"categoryId"`
	UseAIImage *bool  `json:"useAiImage"`
	Provider   string `json:"provider"`
}

// GenerateImageRequest is the body of POST /api/ai/generate-image.
type GenerateImageRequest struct {
	Prompt   string `json:"prompt"`
	Title    string `json:"title"`
	Category string `json:"category"`
	PostID   string `json:"postId"`
}

// GeneratePost handles POST /api/ai/generate-post
func (h *GenerationHandler) GeneratePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req GeneratePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.gen.GeneratePost(r.Context(), generator.PostRequest{
		Topic:      req.Topic,
		CategoryID: req.CategoryID,
		Provider:   providerOrDefault(req.Provider),
		UseImage:   boolOr(req.UseAIImage, true),
	})
	if err != nil {
		h.writeGenerationError(w, err, "Failed to generate blog post")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"post":    res.Post,
		"message": "Blog post generated successfully",
	}, h.logger)
}

// GenerateRecipe handles POST /api/ai/generate-recipe
func (h *GenerationHandler) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req GenerateRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	diet := generator.DietType(strings.ToUpper(strings.TrimSpace(req.DietType)))
	if diet == "" {
		diet = generator.DietHealthy
	}

	res, err := h.gen.GenerateRecipe(r.Context(), generator.RecipeRequest{
		Topic:      req.Topic,
		DietType:   diet,
		CategoryID: req.CategoryID,
		Provider:   providerOrDefault(req.Provider),
		UseImage:   boolOr(req.UseAIImage, true),
	})
	if err != nil {
		h.writeGenerationError(w, err, "Failed to generate recipe")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"recipe":  res.Recipe,
		"message": "Recipe generated successfully",
	}, h.logger)
}

// GenerateImage handles POST /api/ai/generate-image
func (h *GenerationHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req GenerateImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.gen.GenerateImage(r.Context(), generator.ImageRequest{
		Prompt:   req.Prompt,
		Title:    req.Title,
		Category: req.Category,
		PostID:   req.PostID,
	})
	switch {
	case errors.Is(err, generator.ErrImageInput):
		writeError(w, http.StatusBadRequest, "Either prompt or title is required")
		return
	case errors.Is(err, generator.ErrImagesUnavailable):
		writeError(w, http.StatusInternalServerError, "OpenAI API key not configured")
		return
	case err != nil:
		h.logger.Error("image generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": res.URL,
		"prompt":   res.Prompt,
	}, h.logger)
}

// DailyPost handles GET and POST /api/cron/daily-post
func (h *GenerationHandler) DailyPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	out, err := h.daily.Run(r.Context())
	if err != nil {
		h.logger.Error("daily post failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create daily post")
		return
	}

	if out.Skipped {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Already posted today",
			"skipped": true,
		}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"post": map[string]string{
			"id":    out.Post.ID,
			"title": out.Post.Title,
			"slug":  out.Post.Slug,
		},
		"topic":   out.Topic.Topic,
		"message": "Daily post created successfully",
	}, h.logger)
}

// GenerationLogsResponse is a page of generation outcomes.
type GenerationLogsResponse struct {
	Logs       []models.GenerationLog `json:"logs"`
	Pagination models.Pagination      `json:"pagination"`
}

// ListGenerationLogs handles GET /api/admin/generation-logs
func (h *GenerationHandler) ListGenerationLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	page, limit := paging(r, 20)
	q := models.GenerationLogQuery{
		Type:   models.GenerationType(strings.ToUpper(r.URL.Query().Get("type"))),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v, err := strconv.ParseBool(r.URL.Query().Get("success")); err == nil {
		q.Success = &v
	}

	logs, total, err := h.logs.List(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list generation logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch generation logs")
		return
	}

	writeJSON(w, http.StatusOK, GenerationLogsResponse{
		Logs:       logs,
		Pagination: models.NewPagination(page, limit, total),
	}, h.logger)
}

// GenerationStats handles GET /api/admin/generation-logs/stats
func (h *GenerationHandler) GenerationStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	stats, err := h.logs.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute generation stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch generation stats")
		return
	}
	writeJSON(w, http.StatusOK, stats, h.logger)
}

// ListInferenceLogs handles GET /api/admin/inference-logs
func (h *GenerationHandler) ListInferenceLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	_, limit := paging(r, 100)
	logs, err := h.inferences.List(r.Context(), r.URL.Query().Get("provider"), limit)
	if err != nil {
		h.logger.Error("failed to list inference logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch inference logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "limit": limit}, h.logger)
}

func (h *GenerationHandler) writeGenerationError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, generator.ErrEmptyTopic):
		writeError(w, http.StatusBadRequest, "Topic is required")
	case errors.Is(err, generator.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, "Unknown provider")
	default:
		h.logger.Error("generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func providerOrDefault(p string) string {
	if strings.TrimSpace(p) == "" {
		return "openai"
	}
	return p
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
