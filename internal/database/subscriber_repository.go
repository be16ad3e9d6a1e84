package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// SubscribeOutcome tells the caller which newsletter message applies.
type SubscribeOutcome int

const (
	Subscribed SubscribeOutcome = iota
	AlreadySubscribed
	Resubscribed
)

// SubscriberRepository handles newsletter subscribers.
type SubscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository creates a new repository
func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Subscribe adds email, reactivating an unsubscribed address. The lookup and
// write share a transaction with a row lock so concurrent requests for the
// same address agree on the outcome.
func (r *SubscriberRepository) Subscribe(ctx context.Context, s *models.NewsletterSubscriber) (SubscribeOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		id     string
		active bool
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, is_active FROM newsletter_subscribers WHERE email = $1 FOR UPDATE`, s.Email,
	).Scan(&id, &active)

	outcome := Subscribed
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO newsletter_subscribers (id, email, first_name, source)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING
			RETURNING subscribed_at`,
			s.ID, s.Email, s.FirstName, s.Source,
		).Scan(&s.SubscribedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Lost an insert race with another request for the same address.
			outcome, err = AlreadySubscribed, nil
		}
	case err != nil:
		return 0, fmt.Errorf("failed to look up subscriber: %w", err)
	case active:
		s.ID, s.IsActive = id, true
		return AlreadySubscribed, nil
	default:
		s.ID = id
		outcome = Resubscribed
		err = tx.QueryRowContext(ctx, `
			UPDATE newsletter_subscribers
			SET is_active = TRUE, unsubscribed_at = NULL, subscribed_at = NOW(),
				first_name = COALESCE($2, first_name)
			WHERE id = $1
			RETURNING subscribed_at`,
			id, s.FirstName,
		).Scan(&s.SubscribedAt)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to save subscriber: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit subscriber: %w", err)
	}
	s.IsActive = true
	return outcome, nil
}

// Unsubscribe deactivates email. ErrNotFound when the address is unknown.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE newsletter_subscribers SET is_active = FALSE, unsubscribed_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return expectOneRow(res)
}
