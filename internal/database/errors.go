package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlugTaken is returned when an insert or update collides on slug.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrDailySlotTaken is returned when a scheduled daily post already
	// exists for the date.
	ErrDailySlotTaken = errors.New("daily post already exists for date")
	// ErrShortCodeTaken is returned when an affiliate short code collides.
	ErrShortCodeTaken = errors.New("short code already exists")
	// ErrCategoryInUse is returned when deleting a category that still has posts.
	ErrCategoryInUse = errors.New("category has posts")
)

const uniqueViolation = "23505"

// constraintErrors maps unique constraint names to sentinel errors.
var constraintErrors = map[string]error{
	"posts_slug_key":                 ErrSlugTaken,
	"recipes_slug_key":               ErrSlugTaken,
	"videos_slug_key":                ErrSlugTaken,
	"categories_slug_key":            ErrSlugTaken,
	"posts_daily_slot_key":           ErrDailySlotTaken,
	"affiliate_links_short_code_key": ErrShortCodeTaken,
}

// translate converts known unique violations to sentinel errors and returns
// everything else unchanged.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if sentinel, ok := constraintErrors[pqErr.Constraint]; ok {
			return sentinel
		}
	}
	return err
}
