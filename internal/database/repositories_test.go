package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

var categoryRowColumns = []string{
	"id", "name", "slug", "description", "color", "icon", "sort_order",
	"meta_title", "meta_description", "created_at", "updated_at",
}

func TestCategoryRepositoryFindByName(t *testing.T) {
	now := time.Now()
	exact := regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1)")
	contains := regexp.QuoteMeta("WHERE name ILIKE $1")

	t.Run("exact match", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(exact).WithArgs("nutrition").
			WillReturnRows(sqlmock.NewRows(categoryRowColumns).
				AddRow("c1", "Nutrition", "nutrition", nil, "#10b981", nil, 1, nil, nil, now, now))

		c, err := NewCategoryRepository(db).FindByName(context.Background(), "nutrition")
		require.NoError(t, err)
		assert.Equal(t, "Nutrition", c.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("substring fallback", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(exact).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(contains).WithArgs("%Fitness%").
			WillReturnRows(sqlmock.NewRows(categoryRowColumns).
				AddRow("c2", "Fitness & Exercise", "fitness", nil, "#f97316", nil, 2, nil, nil, now, now))

		c, err := NewCategoryRepository(db).FindByName(context.Background(), "Fitness")
		require.NoError(t, err)
		assert.Equal(t, "c2", c.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no match", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(exact).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(contains).WillReturnError(sql.ErrNoRows)

		_, err := NewCategoryRepository(db).FindByName(context.Background(), "Gardening")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryRepositoryDeleteInUse(t *testing.T) {
	db, mock := newMock(t)
	id := "2f6f0b8e-7d55-4a8e-9f55-0d3c6e1f2a10"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE category_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	err := NewCategoryRepository(db).Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryCreateSlugTaken(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO categories").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "categories_slug_key"})

	err := NewCategoryRepository(db).Create(context.Background(), &models.Category{Name: "Sleep", Slug: "sleep", Color: "#000000"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestSubscriberRepositorySubscribe(t *testing.T) {
	lookup := regexp.QuoteMeta("SELECT id, is_active FROM newsletter_subscribers WHERE email = $1 FOR UPDATE")
	now := time.Now()

	t.Run("new address", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lookup).WithArgs("a@example.com").WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}))
		mock.ExpectQuery("INSERT INTO newsletter_subscribers").
			WillReturnRows(sqlmock.NewRows([]string{"subscribed_at"}).AddRow(now))
		mock.ExpectCommit()

		s := &models.NewsletterSubscriber{Email: "a@example.com", Source: "website"}
		outcome, err := NewSubscriberRepository(db).Subscribe(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, Subscribed, outcome)
		assert.True(t, s.IsActive)
		assert.NotEmpty(t, s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already active", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lookup).WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow("s1", true))
		mock.ExpectRollback()

		outcome, err := NewSubscriberRepository(db).Subscribe(context.Background(), &models.NewsletterSubscriber{Email: "a@example.com"})
		require.NoError(t, err)
		assert.Equal(t, AlreadySubscribed, outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reactivates unsubscribed address", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lookup).WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow("s1", false))
		mock.ExpectQuery("UPDATE newsletter_subscribers").
			WithArgs("s1", nil).
			WillReturnRows(sqlmock.NewRows([]string{"subscribed_at"}).AddRow(now))
		mock.ExpectCommit()

		s := &models.NewsletterSubscriber{Email: "a@example.com"}
		outcome, err := NewSubscriberRepository(db).Subscribe(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, Resubscribed, outcome)
		assert.Equal(t, "s1", s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubscriberRepositoryUnsubscribeUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE newsletter_subscribers SET is_active = FALSE").
		WithArgs("nobody@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewSubscriberRepository(db).Unsubscribe(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerationLogRepositoryStats(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM generation_logs").
		WillReturnRows(sqlmock.NewRows([]string{"total", "successful", "fallbacks", "tokens"}).AddRow(4, 3, 1, 5200))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY type")).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).AddRow("BLOG_POST", 3).AddRow("IMAGE", 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE NOT success")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "type", "post_id", "recipe_id", "prompt", "model", "tokens_used", "success", "fallback", "error_message", "created_at",
		}).AddRow("g1", "BLOG_POST", nil, nil, "Sleep hygiene", "unknown", 0, false, false, "boom", now))

	stats, err := NewGenerationLogRepository(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Fallbacks)
	assert.Equal(t, int64(5200), stats.TotalTokens)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)
	assert.Equal(t, 3, stats.ByType[models.GenerationBlogPost])
	require.Len(t, stats.LastFailures, 1)
	require.NotNil(t, stats.LastFailures[0].ErrorMessage)
	assert.Equal(t, "boom", *stats.LastFailures[0].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepositoryListFilters(t *testing.T) {
	db, mock := newMock(t)
	failed := false

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM generation_logs WHERE type = $1 AND success = $2")).
		WithArgs("RECIPE", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "type", "post_id", "recipe_id", "prompt", "model", "tokens_used", "success", "fallback", "error_message", "created_at",
		}))

	logs, total, err := NewGenerationLogRepository(db).List(context.Background(), models.GenerationLogQuery{
		Type: models.GenerationRecipe, Success: &failed, Limit: 20,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAffiliateRepositoryGetByShortCode(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM affiliate_links WHERE short_code = $1")).
		WithArgs("aff-lx2k").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "url", "short_code", "network", "product_id", "commission", "description",
			"image_url", "call_to_action", "show_in_sidebar", "sidebar_order", "is_active", "click_count",
			"created_at", "updated_at",
		}).AddRow("a1", "Protein", "https://shop.example.com/p", "aff-lx2k", "AMAZON", nil, "7.50", nil,
			nil, "Shop Now", true, 0, true, 12, now, now))

	l, err := NewAffiliateRepository(db).GetByIDOrShortCode(context.Background(), "aff-lx2k")
	require.NoError(t, err)
	assert.Equal(t, models.NetworkAmazon, l.Network)
	require.True(t, l.Commission.Valid)
	assert.True(t, l.Commission.Decimal.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, 12, l.ClickCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAffiliateRepositoryCreateShortCodeTaken(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO affiliate_links").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "affiliate_links_short_code_key"})

	err := NewAffiliateRepository(db).Create(context.Background(), &models.AffiliateLink{
		Name: "x", URL: "https://x.example.com", ShortCode: "dup", Network: models.NetworkOther,
	})
	assert.ErrorIs(t, err, ErrShortCodeTaken)
}

func TestAffiliateRepositoryIncrementClicksMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE affiliate_links SET click_count").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAffiliateRepository(db).IncrementClicks(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}
