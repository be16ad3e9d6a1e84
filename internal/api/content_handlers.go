package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/slug"
)

// RecipeReader is the recipe persistence used by ContentHandler.
type RecipeReader interface {
	GetBySlug(ctx context.Context, slug string) (*models.Recipe, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Recipe, int, error)
	IncrementViewCount(ctx context.Context, id string) error
}

// VideoStore is the video persistence used by ContentHandler.
type VideoStore interface {
	Create(ctx context.Context, v *models.Video) error
	GetBySlug(ctx context.Context, slug string) (*models.Video, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Video, int, error)
	IncrementViewCount(ctx context.Context, id string) error
}

// ContentHandler serves recipe and video pages.
type ContentHandler struct {
	recipes RecipeReader
	videos  VideoStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewContentHandler creates a handler for recipes and videos
func NewContentHandler(recipes RecipeReader, videos VideoStore, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{recipes: recipes, videos: videos, logger: logger, now: time.Now}
}

func listQuery(r *http.Request) models.ListQuery {
	q := r.URL.Query()
	page, limit := paging(r, 12)
	query := models.ListQuery{
		Page:       page,
		Limit:      limit,
		CategoryID: q.Get("categoryId"),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if !auth.IsAuthenticated(r.Context()) {
		query.Status = models.StatusPublished
	} else if st, err := models.ParseContentStatus(q.Get("status")); err == nil {
		query.Status = st
	}
	return query
}

// ListRecipes handles GET /api/recipes
func (h *ContentHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := listQuery(r)
	recipes, total, err := h.recipes.List(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recipes":    recipes,
		"pagination": models.NewPagination(q.Page, q.Limit, total),
	}, h.logger)
}

// GetRecipe handles GET /api/recipes/{slug}
func (h *ContentHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	recipe, err := h.recipes.GetBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		h.notFoundOr500(w, err, "Recipe not found", "Failed to fetch recipe")
		return
	}
	if !auth.IsAuthenticated(ctx) {
		if recipe.Status != models.StatusPublished {
			writeError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		if err := h.recipes.IncrementViewCount(ctx, recipe.ID); err != nil {
			h.logger.Warn("failed to count recipe view", "recipe_id", recipe.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, recipe, h.logger)
}

// HandleVideos handles GET and POST /api/videos
func (h *ContentHandler) HandleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := listQuery(r)
		videos, total, err := h.videos.List(r.Context(), q)
		if err != nil {
			h.logger.Error("failed to list videos", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch videos")
			return
		}
		if videos == nil {
			videos = []models.Video{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"videos":     videos,
			"pagination": models.NewPagination(q.Page, q.Limit, total),
		}, h.logger)
	case http.MethodPost:
		if !auth.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.createVideo(w, r)
	default:
		methodNotAllowed(w)
	}
}

// GetVideo handles GET /api/videos/{slug}
func (h *ContentHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	video, err := h.videos.GetBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		h.notFoundOr500(w, err, "Video not found", "Failed to fetch video")
		return
	}
	if !auth.IsAuthenticated(ctx) {
		if video.Status != models.StatusPublished {
			writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		if err := h.videos.IncrementViewCount(ctx, video.ID); err != nil {
			h.logger.Warn("failed to count video view", "video_id", video.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, video, h.logger)
}

func (h *ContentHandler) createVideo(w http.ResponseWriter, r *http.Request) {
	var in VideoInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	now := h.now()
	v := &models.Video{
		Title:           strings.TrimSpace(*in.Title),
		Description:     in.Description,
		YoutubeID:       strings.TrimSpace(*in.YoutubeID),
		YoutubeURL:      *in.YoutubeURL,
		Thumbnail:       nilIfEmpty(in.Thumbnail),
		Duration:        nilIfEmpty(in.Duration),
		Status:          models.StatusDraft,
		PublishedAt:     in.PublishedAt,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Keywords:        in.Keywords,
		CategoryID:      nilIfEmpty(in.CategoryID),
	}
	if in.Status != nil {
		v.Status = models.ContentStatus(*in.Status)
	}
	if v.Status == models.StatusPublished && v.PublishedAt == nil {
		v.PublishedAt = &now
	}

	base := slug.Make(v.Title)
	if in.Slug != nil && *in.Slug != "" {
		base = slug.Make(*in.Slug)
	}
	if base == "" {
		base = "video"
	}
	err := slug.Insert(r.Context(), base, now, slugRetries, isSlugTaken, func(s string) error {
		v.Slug = s
		return h.videos.Create(r.Context(), v)
	})
	if err != nil {
		h.logger.Error("failed to create video", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}
	writeJSON(w, http.StatusCreated, v, h.logger)
}

func (h *ContentHandler) notFoundOr500(w http.ResponseWriter, err error, notFound, failed string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.logger.Error(strings.ToLower(failed), "error", err)
	writeError(w, http.StatusInternalServerError, failed)
}
