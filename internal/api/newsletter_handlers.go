package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// Newsletter responses.
const (
	msgSubscribed        = "Thanks for subscribing! Check your inbox for a welcome email."
	msgAlreadySubscribed = "You're already subscribed!"
	msgResubscribed      = "Welcome back! You've been resubscribed."
	msgUnsubscribed      = "You have been unsubscribed successfully."
)

// SubscriberStore is the newsletter persistence used by NewsletterHandler.
type SubscriberStore interface {
	Subscribe(ctx context.Context, s *models.NewsletterSubscriber) (database.SubscribeOutcome, error)
	Unsubscribe(ctx context.Context, email string) error
}

// NewsletterHandler serves newsletter sign-up and removal.
type NewsletterHandler struct {
	repo   SubscriberStore
	logger *slog.Logger
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(repo SubscriberStore, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{repo: repo, logger: logger}
}

// SubscribeRequest is the body of POST /api/newsletter.
type SubscribeRequest struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	Source    string  `json:"source"`
}

// MessageResponse is a success flag with a user-facing message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleNewsletter handles POST and DELETE /api/newsletter
func (h *NewsletterHandler) HandleNewsletter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.subscribe(w, r)
	case http.MethodDelete:
		h.unsubscribe(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *NewsletterHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	sub := &models.NewsletterSubscriber{
		Email:     email,
		FirstName: nilIfEmpty(trimmed(req.FirstName)),
		Source:    strings.TrimSpace(req.Source),
	}
	if sub.Source == "" {
		sub.Source = "website"
	}

	outcome, err := h.repo.Subscribe(r.Context(), sub)
	if err != nil {
		h.logger.Error("failed to subscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
		return
	}

	msg := msgSubscribed
	switch outcome {
	case database.AlreadySubscribed:
		msg = msgAlreadySubscribed
	case database.Resubscribed:
		msg = msgResubscribed
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: msg}, h.logger)
}

func (h *NewsletterHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("email")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(raw))

	err := h.repo.Unsubscribe(r.Context(), email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Email not found")
	case err != nil:
		h.logger.Error("failed to unsubscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to unsubscribe. Please try again.")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: msgUnsubscribed}, h.logger)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
