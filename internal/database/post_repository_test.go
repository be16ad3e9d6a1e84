package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var postRowColumns = []string{
	"id", "title", "slug", "excerpt", "content", "featured_image", "featured_image_alt",
	"status", "published_at", "scheduled_at", "meta_title", "meta_description", "keywords",
	"reading_time", "view_count", "is_ai_generated", "ai_model", "ai_prompt", "category_id",
	"author_id", "daily_slot", "created_at", "updated_at", "name", "slug", "color",
}

func postRow(id, slug string, categoryID driver.Value, catName driver.Value) []driver.Value {
	now := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "Title", slug, "Excerpt", "<p>Body</p>", nil, nil,
		"PUBLISHED", now, nil, "Title", "Excerpt", []byte("{hormones,sleep}"),
		int64(3), int64(7), true, "gpt-4-turbo-preview", "topic", categoryID,
		nil, nil, now, now, catName, "nutrition", "#10b981",
	}
}

func TestPostRepositoryCreate(t *testing.T) {
	created := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "success"},
		{name: "slug collision", dbErr: &pq.Error{Code: "23505", Constraint: "posts_slug_key"}, wantErr: ErrSlugTaken},
		{name: "daily slot collision", dbErr: &pq.Error{Code: "23505", Constraint: "posts_daily_slot_key"}, wantErr: ErrDailySlotTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostRepository(db)

			exp := mock.ExpectQuery("INSERT INTO posts")
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
			}

			p := &models.Post{Title: "Title", Slug: "title", Content: "<p>x</p>", Status: models.StatusDraft}
			err := repo.Create(context.Background(), p)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, p.ID)
				assert.Equal(t, created, p.CreatedAt)
				assert.Equal(t, []string{}, p.Keywords)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepositoryCreateOtherUniqueViolationIsWrapped(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("INSERT INTO posts").WillReturnError(&pq.Error{Code: "23505", Constraint: "something_else"})

	err := repo.Create(context.Background(), &models.Post{Title: "t", Slug: "t", Content: "c"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlugTaken)
	assert.Contains(t, err.Error(), "failed to create post")
}

func TestPostRepositoryGetBySlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	catID := "2f6f0b8e-7d55-4a8e-9f55-0d3c6e1f2a10"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = $1")).
		WithArgs("title").
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(postRow("id-1", "title", catID, "Nutrition")...))

	p, err := repo.GetBySlug(context.Background(), "title")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, p.Status)
	assert.Equal(t, []string{"hormones", "sleep"}, p.Keywords)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Nutrition", p.Category.Name)
	require.NotNil(t, p.ReadingTime)
	assert.Equal(t, 3, *p.ReadingTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryGetBySlugNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("FROM posts p").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepositoryGetByIDRejectsMalformedID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts p WHERE p.status = $1 AND (p.title ILIKE $2 OR p.excerpt ILIKE $3)")).
		WithArgs("PUBLISHED", "%50\\%%", "%50\\%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.title ASC LIMIT 5 OFFSET 10")).
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(postRow("id-1", "a", nil, nil)...))

	posts, total, err := repo.List(context.Background(), models.PostQuery{
		Page: 3, Limit: 5, Status: models.StatusPublished, Search: "50%", SortBy: "title", SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListIgnoresUnknownSortColumn(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_at DESC")).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	posts, total, err := repo.List(context.Background(), models.PostQuery{Page: 1, Limit: 10, SortBy: "1; DROP TABLE posts"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryCountAIGeneratedSince(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE is_ai_generated = TRUE AND created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountAIGeneratedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	id := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	mock.ExpectExec("DELETE FROM posts").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_off\\`, escapeLike(`100% _off\`))
}
