package api

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/retry"
)

const (
	defaultCallToAction = "Shop Now"
	shortCodeRetries    = 2
)

// AffiliateStore is the affiliate persistence used by AffiliateHandler.
type AffiliateStore interface {
	List(ctx context.Context, q models.AffiliateQuery) ([]models.AffiliateLink, error)
	GetByIDOrShortCode(ctx context.Context, key string) (*models.AffiliateLink, error)
	Create(ctx context.Context, l *models.AffiliateLink) error
	Update(ctx context.Context, l *models.AffiliateLink) error
	Delete(ctx context.Context, id string) error
	IncrementClicks(ctx context.Context, id string) error
}

// ClickObserver counts tracked redirects.
type ClickObserver interface {
	ObserveClick()
}

// AffiliateHandler serves affiliate links and tracked redirects.
type AffiliateHandler struct {
	repo     AffiliateStore
	limiter  *RateLimiter
	observer ClickObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewAffiliateHandler creates a new affiliate handler. limiter bounds
// tracked clicks per client; observer may be nil.
func NewAffiliateHandler(repo AffiliateStore, limiter *RateLimiter, observer ClickObserver, logger *slog.Logger) *AffiliateHandler {
	return &AffiliateHandler{repo: repo, limiter: limiter, observer: observer, logger: logger, now: time.Now}
}

// HandleAffiliates handles GET and POST /api/affiliates
func (h *AffiliateHandler) HandleAffiliates(w http.ResponseWriter, r *http.Request) {
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

// HandleAffiliate handles GET, PUT and DELETE /api/affiliates/{key}, where
// key is an id or a short code. GET with ?track=true counts a click and
// redirects to the product.
func (h *AffiliateHandler) HandleAffiliate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("track") == "true" {
			h.track(w, r, key)
			return
		}
		h.show(w, r, key)
	case http.MethodPut, http.MethodDelete:
		if !auth.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if r.Method == http.MethodPut {
			h.update(w, r, key)
		} else {
			h.delete(w, r, key)
		}
	default:
		methodNotAllowed(w)
	}
}

func (h *AffiliateHandler) list(w http.ResponseWriter, r *http.Request) {
	sidebar := r.URL.Query().Get("sidebar") == "true"
	q := models.AffiliateQuery{
		ActiveOnly:  sidebar || !auth.IsAuthenticated(r.Context()),
		SidebarOnly: sidebar,
	}

	links, err := h.repo.List(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list affiliates", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch affiliates")
		return
	}
	if links == nil {
		links = []models.AffiliateLink{}
	}
	writeJSON(w, http.StatusOK, links, h.logger)
}

func (h *AffiliateHandler) lookup(w http.ResponseWriter, r *http.Request, key string) (*models.AffiliateLink, bool) {
	l, err := h.repo.GetByIDOrShortCode(r.Context(), key)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Affiliate not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to get affiliate", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch affiliate")
		return nil, false
	}
	return l, true
}

func (h *AffiliateHandler) show(w http.ResponseWriter, r *http.Request, key string) {
	if l, ok := h.lookup(w, r, key); ok {
		writeJSON(w, http.StatusOK, l, h.logger)
	}
}

// track redirects every caller but counts only clients that are neither
// bots nor over their rate budget.
func (h *AffiliateHandler) track(w http.ResponseWriter, r *http.Request, key string) {
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}
	l, ok := h.lookup(w, r, key)
	if !ok {
		return
	}

	if !isBot(r.UserAgent()) {
		if err := h.repo.IncrementClicks(r.Context(), l.ID); err != nil {
			h.logger.Warn("failed to count affiliate click", "affiliate_id", l.ID, "error", err)
		} else if h.observer != nil {
			h.observer.ObserveClick()
		}
	}
	http.Redirect(w, r, l.URL, http.StatusFound)
}

func (h *AffiliateHandler) create(w http.ResponseWriter, r *http.Request) {
	var in AffiliateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(true); err != nil {
		writeValidationError(w, err)
		return
	}

	l := &models.AffiliateLink{
		Network:       models.NetworkOther,
		CallToAction:  defaultCallToAction,
		ShowInSidebar: true,
		IsActive:      true,
	}
	in.applyTo(l)
	if l.ShortCode == "" {
		l.ShortCode = "aff-" + strconv.FormatInt(h.now().UnixMilli(), 36)
	}

	base := l.ShortCode
	policy := retry.Immediate(shortCodeRetries, func(err error) bool {
		return errors.Is(err, database.ErrShortCodeTaken)
	})
	err := retry.Do(r.Context(), policy, func(attempt int) error {
		if attempt > 0 {
			l.ShortCode = base + "-" + randomBase36(4)
		}
		return h.repo.Create(r.Context(), l)
	})
	if err != nil {
		h.logger.Error("failed to create affiliate", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create affiliate")
		return
	}
	writeJSON(w, http.StatusCreated, l, h.logger)
}

func (h *AffiliateHandler) update(w http.ResponseWriter, r *http.Request, key string) {
	var in AffiliateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := in.Validate(false); err != nil {
		writeValidationError(w, err)
		return
	}

	l, ok := h.lookup(w, r, key)
	if !ok {
		return
	}
	in.applyTo(l)

	err := h.repo.Update(r.Context(), l)
	switch {
	case errors.Is(err, database.ErrShortCodeTaken):
		writeError(w, http.StatusBadRequest, "Short code already exists")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Affiliate not found")
	case err != nil:
		h.logger.Error("failed to update affiliate", "affiliate_id", l.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update affiliate")
	default:
		writeJSON(w, http.StatusOK, l, h.logger)
	}
}

func (h *AffiliateHandler) delete(w http.ResponseWriter, r *http.Request, key string) {
	l, ok := h.lookup(w, r, key)
	if !ok {
		return
	}
	err := h.repo.Delete(r.Context(), l.ID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Affiliate not found")
	case err != nil:
		h.logger.Error("failed to delete affiliate", "affiliate_id", l.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete affiliate")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
	}
}

func (in AffiliateInput) applyTo(l *models.AffiliateLink) {
	if in.Name != nil {
		l.Name = strings.TrimSpace(*in.Name)
	}
	if in.URL != nil {
		l.URL = *in.URL
	}
	if in.ShortCode != nil {
		l.ShortCode = *in.ShortCode
	}
	if in.Network != nil {
		if n, err := models.ParseAffiliateNetwork(*in.Network); err == nil {
			l.Network = n
		}
	}
	if in.ProductID != nil {
		l.ProductID = nilIfEmpty(in.ProductID)
	}
	if in.Commission != nil {
		l.Commission = decimal.NullDecimal{Decimal: *in.Commission, Valid: true}
	}
	if in.Description != nil {
		l.Description = in.Description
	}
	if in.ImageURL != nil {
		l.ImageURL = nilIfEmpty(in.ImageURL)
	}
	if in.CallToAction != nil && *in.CallToAction != "" {
		l.CallToAction = *in.CallToAction
	}
	if in.ShowInSidebar != nil {
		l.ShowInSidebar = *in.ShowInSidebar
	}
	if in.SidebarOrder != nil {
		l.SidebarOrder = *in.SidebarOrder
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

