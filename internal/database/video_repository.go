package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

const videoColumns = `id, title, slug, description, youtube_id, youtube_url, thumbnail, duration,
	status, published_at, meta_title, meta_description, keywords, view_count, category_id,
	created_at, updated_at`

// VideoRepository handles video persistence.
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new repository
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a video; a slug collision returns ErrSlugTaken.
func (r *VideoRepository) Create(ctx context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO videos (
			id, title, slug, description, youtube_id, youtube_url, thumbnail, duration,
			status, published_at, meta_title, meta_description, keywords, category_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		v.ID, v.Title, v.Slug, v.Description, v.YoutubeID, v.YoutubeURL, v.Thumbnail, v.Duration,
		v.Status, v.PublishedAt, v.MetaTitle, v.MetaDescription, pq.Array(nonNil(v.Keywords)), v.CategoryID,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetBySlug returns a video by slug.
func (r *VideoRepository) GetBySlug(ctx context.Context, slug string) (*models.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// List returns one page of videos, newest published first.
func (r *VideoRepository) List(ctx context.Context, q models.ListQuery) ([]models.Video, int, error) {
	filter := func(b sq.SelectBuilder) sq.SelectBuilder {
		if q.Status != "" {
			b = b.Where(sq.Eq{"status": string(q.Status)})
		}
		if q.CategoryID != "" {
			b = b.Where(sq.Eq{"category_id": q.CategoryID})
		}
		if q.Search != "" {
			b = b.Where(sq.ILike{"title": "%" + escapeLike(q.Search) + "%"})
		}
		return b
	}

	countQuery, countArgs, err := filter(psql.Select("COUNT(*)").From("videos")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	query, args, err := filter(psql.Select(videoColumns).From("videos")).
		OrderBy("published_at DESC NULLS LAST", "created_at DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	return videos, total, rows.Err()
}

// IncrementViewCount adds one view.
func (r *VideoRepository) IncrementViewCount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var (
		v        models.Video
		status   string
		keywords pq.StringArray
	)
	err := row.Scan(
		&v.ID, &v.Title, &v.Slug, &v.Description, &v.YoutubeID, &v.YoutubeURL, &v.Thumbnail, &v.Duration,
		&status, &v.PublishedAt, &v.MetaTitle, &v.MetaDescription, &keywords, &v.ViewCount, &v.CategoryID,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = models.ContentStatus(status)
	v.Keywords = nonNil(keywords)
	return &v, nil
}
