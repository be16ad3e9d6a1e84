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
	"github.com/lmojica26/womenhealthytips.com/internal/readtime"
	"github.com/lmojica26/womenhealthytips.com/internal/slug"
)

const slugRetries = 3

// PostStore is the post persistence used by PostHandler.
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
}

// PostHandler serves blog post CRUD.
type PostHandler struct {
	repo   PostStore
	logger *slog.Logger
	now    func() time.Time
}

// NewPostHandler creates a new post handler
func NewPostHandler(repo PostStore, logger *slog.Logger) *PostHandler {
	return &PostHandler{repo: repo, logger: logger, now: time.Now}
}

// PostsResponse is a page of posts.
type PostsResponse struct {
	Posts      []models.Post     `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

// HandlePosts handles GET and POST /api/posts
func (h *PostHandler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		if !auth.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.create(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandlePost handles GET, PUT and DELETE /api/posts/{id}
func (h *PostHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		h.show(w, r, func(ctx context.Context) (*models.Post, error) { return h.repo.GetByID(ctx, id) })
	case http.MethodPut, http.MethodDelete:
		if !auth.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if r.Method == http.MethodPut {
			h.update(w, r, id)
		} else {
			h.delete(w, r, id)
		}
	default:
		methodNotAllowed(w)
	}
}

// GetPostBySlug handles GET /api/blog/{slug}
func (h *PostHandler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s := r.PathValue("slug")
	h.show(w, r, func(ctx context.Context) (*models.Post, error) { return h.repo.GetBySlug(ctx, s) })
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := paging(r, 10)
	query := models.PostQuery{
		Page:       page,
		Limit:      limit,
		CategoryID: q.Get("categoryId"),
		Search:     strings.TrimSpace(q.Get("search")),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}
	if !auth.IsAuthenticated(r.Context()) {
		query.Status = models.StatusPublished
	} else if st, err := models.ParseContentStatus(q.Get("status")); err == nil {
		query.Status = st
	}

	posts, total, err := h.repo.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, PostsResponse{
		Posts:      posts,
		Pagination: models.NewPagination(page, limit, total),
	}, h.logger)
}

// show hides unpublished posts from anonymous callers and counts their views.
func (h *PostHandler) show(w http.ResponseWriter, r *http.Request, get func(context.Context) (*models.Post, error)) {
	ctx := r.Context()
	post, err := get(ctx)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	if !auth.IsAuthenticated(ctx) {
		if post.Status != models.StatusPublished {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		if err := h.repo.IncrementViewCount(ctx, post.ID); err != nil {
			h.logger.Warn("failed to count post view", "post_id", post.ID, "error", err)
		} else {
			post.ViewCount++
		}
	}
	writeJSON(w, http.StatusOK, post, h.logger)
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request) {
	var in PostInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(true); err != nil {
		writeValidationError(w, err)
		return
	}

	now := h.now()
	post := &models.Post{Status: models.StatusDraft}
	in.applyTo(post, now)
	if post.MetaTitle == nil {
		post.MetaTitle = &post.Title
	}
	if post.MetaDescription == nil {
		post.MetaDescription = post.Excerpt
	}
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		post.AuthorID = &userID
	}

	base := post.Slug
	if base == "" {
		base = "post"
	}
	err := slug.Insert(r.Context(), base, now, slugRetries, isSlugTaken, func(s string) error {
		post.Slug = s
		return h.repo.Create(r.Context(), post)
	})
	if err != nil {
		h.logger.Error("failed to create post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	h.logger.Info("created post", "post_id", post.ID, "slug", post.Slug)
	writeJSON(w, http.StatusCreated, post, h.logger)
}

func (h *PostHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var in PostInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(false); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	post, err := h.repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get post", "post_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	now := h.now()
	oldSlug := post.Slug
	in.applyTo(post, now)

	base := post.Slug
	if base == "" {
		base = oldSlug
	}
	retries := slugRetries
	if base == oldSlug {
		retries = 0
	}
	err = slug.Insert(ctx, base, now, retries, isSlugTaken, func(s string) error {
		post.Slug = s
		return h.repo.Update(ctx, post)
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case err != nil:
		h.logger.Error("failed to update post", "post_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update post")
	default:
		writeJSON(w, http.StatusOK, post, h.logger)
	}
}

func (h *PostHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.repo.Delete(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case err != nil:
		h.logger.Error("failed to delete post", "post_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
	}
}

// applyTo copies the set fields of in onto p. A new title without an
// explicit slug re-derives the slug, new content recomputes the reading
// time, and the first move to PUBLISHED stamps publishedAt.
func (in PostInput) applyTo(p *models.Post, now time.Time) {
	wasPublished := p.Status == models.StatusPublished && p.ID != ""

	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
		if in.Slug == nil {
			p.Slug = slug.Make(p.Title)
		}
	}
	if in.Slug != nil {
		p.Slug = slug.Make(*in.Slug)
	}
	if in.Excerpt != nil {
		p.Excerpt = in.Excerpt
	}
	if in.Content != nil {
		p.Content = *in.Content
		minutes := readtime.Minutes(p.Content)
		p.ReadingTime = &minutes
	}
	if in.FeaturedImage != nil {
		p.FeaturedImage = nilIfEmpty(in.FeaturedImage)
	}
	if in.FeaturedImageAlt != nil {
		p.FeaturedImageAlt = in.FeaturedImageAlt
	}
	if in.Status != nil {
		p.Status = models.ContentStatus(*in.Status)
	}
	if in.PublishedAt != nil {
		p.PublishedAt = in.PublishedAt
	}
	if in.ScheduledAt != nil {
		p.ScheduledAt = in.ScheduledAt
	}
	if in.CategoryID != nil {
		p.CategoryID = nilIfEmpty(in.CategoryID)
	}
	if in.MetaTitle != nil {
		p.MetaTitle = in.MetaTitle
	}
	if in.MetaDescription != nil {
		p.MetaDescription = in.MetaDescription
	}
	if in.Keywords != nil {
		p.Keywords = in.Keywords
	}
	if in.IsAIGenerated != nil {
		p.IsAIGenerated = *in.IsAIGenerated
	}
	if in.AIModel != nil {
		p.AIModel = in.AIModel
	}
	if in.AIPrompt != nil {
		p.AIPrompt = in.AIPrompt
	}

	if p.Status == models.StatusPublished && !wasPublished && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func isSlugTaken(err error) bool {
	return errors.Is(err, database.ErrSlugTaken)
}
