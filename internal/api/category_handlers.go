package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/slug"
)

const defaultCategoryColor = "#10b981"

// CategoryStore is the category persistence used by CategoryHandler.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id string) error
}

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	repo   CategoryStore
	logger *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(repo CategoryStore, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: repo, logger: logger}
}

// HandleCategories handles /api/categories. Reads are public; writes need
// an admin token. PUT carries the id in the body and DELETE in ?id=.
func (h *CategoryHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.list(w, r)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if !auth.IsAuthenticated(r.Context()) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	}
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories, h.logger)
}

func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(true); err != nil {
		writeValidationError(w, err)
		return
	}

	c := &models.Category{Color: defaultCategoryColor}
	in.applyTo(c)

	err := h.repo.Create(r.Context(), c)
	switch {
	case errors.Is(err, database.ErrSlugTaken):
		writeError(w, http.StatusBadRequest, "Category with this slug already exists")
	case err != nil:
		h.logger.Error("failed to create category", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
	default:
		writeJSON(w, http.StatusCreated, c, h.logger)
	}
}

func (h *CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.ID == "" {
		writeError(w, http.StatusBadRequest, "Category ID is required")
		return
	}
	if err := in.Validate(false); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	c, err := h.repo.GetByID(ctx, in.ID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get category", "category_id", in.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	in.applyTo(c)

	err = h.repo.Update(ctx, c)
	switch {
	case errors.Is(err, database.ErrSlugTaken):
		writeError(w, http.StatusBadRequest, "Category with this slug already exists")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found")
	case err != nil:
		h.logger.Error("failed to update category", "category_id", in.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
	default:
		writeJSON(w, http.StatusOK, c, h.logger)
	}
}

func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Category ID is required")
		return
	}

	err := h.repo.Delete(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, database.ErrCategoryInUse):
		writeError(w, http.StatusBadRequest, "Cannot delete category with existing content. Reassign or delete the content first.")
	case err != nil:
		h.logger.Error("failed to delete category", "category_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete category")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
	}
}

func (in CategoryInput) applyTo(c *models.Category) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		if in.Slug == nil {
			c.Slug = slug.Make(c.Name)
		}
	}
	if in.Slug != nil {
		c.Slug = slug.Make(*in.Slug)
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.Color != nil && *in.Color != "" {
		c.Color = *in.Color
	}
	if in.Icon != nil {
		c.Icon = in.Icon
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
	if in.MetaTitle != nil {
		c.MetaTitle = in.MetaTitle
	}
	if in.MetaDescription != nil {
		c.MetaDescription = in.MetaDescription
	}
}
