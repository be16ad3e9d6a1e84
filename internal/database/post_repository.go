package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const postColumns = `p.id, p.title, p.slug, p.excerpt, p.content, p.featured_image, p.featured_image_alt,
	p.status, p.published_at, p.scheduled_at, p.meta_title, p.meta_description, p.keywords,
	p.reading_time, p.view_count, p.is_ai_generated, p.ai_model, p.ai_prompt, p.category_id,
	p.author_id, p.daily_slot, p.created_at, p.updated_at, c.name, c.slug, c.color`

// postSortColumns whitelists sortable fields.
var postSortColumns = map[string]string{
	"createdAt":   "p.created_at",
	"updatedAt":   "p.updated_at",
	"publishedAt": "p.published_at",
	"title":       "p.title",
	"viewCount":   "p.view_count",
}

// PostRepository handles blog post persistence.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new repository
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post. Slug and daily-slot collisions return ErrSlugTaken
// and ErrDailySlotTaken so callers can retry or skip.
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}

	query := `
		INSERT INTO posts (
			id, title, slug, excerpt, content, featured_image, featured_image_alt, status,
			published_at, scheduled_at, meta_title, meta_description, keywords, reading_time,
			is_ai_generated, ai_model, ai_prompt, category_id, author_id, daily_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage, p.FeaturedImageAlt, p.Status,
		p.PublishedAt, p.ScheduledAt, p.MetaTitle, p.MetaDescription, pq.Array(p.Keywords), p.ReadingTime,
		p.IsAIGenerated, p.AIModel, p.AIPrompt, p.CategoryID, p.AuthorID, p.DailySlot,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID returns a post with its category summary.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, "p.id = $1", id)
}

// GetBySlug returns a post by slug.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.getOne(ctx, "p.slug = $1", slug)
}

func (r *PostRepository) getOne(ctx context.Context, where string, arg any) (*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p LEFT JOIN categories c ON c.id = p.category_id
		WHERE ` + where

	post, err := scanPost(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List returns one page of posts and the total number of matches.
func (r *PostRepository) List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error) {
	filter := func(b sq.SelectBuilder) sq.SelectBuilder {
		if q.Status != "" {
			b = b.Where(sq.Eq{"p.status": string(q.Status)})
		}
		if q.CategoryID != "" {
			b = b.Where(sq.Eq{"p.category_id": q.CategoryID})
		}
		if q.Search != "" {
			pattern := "%" + escapeLike(q.Search) + "%"
			b = b.Where(sq.Or{sq.ILike{"p.title": pattern}, sq.ILike{"p.excerpt": pattern}})
		}
		return b
	}

	countQuery, countArgs, err := filter(psql.Select("COUNT(*)").From("posts p")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	sortCol, ok := postSortColumns[q.SortBy]
	if !ok {
		sortCol = postSortColumns["createdAt"]
	}
	dir := "DESC"
	if q.SortOrder == "asc" {
		dir = "ASC"
	}

	listQuery, args, err := filter(psql.Select(postColumns).
		From("posts p").
		LeftJoin("categories c ON c.id = p.category_id")).
		OrderBy(sortCol + " " + dir).
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

// Update writes every editable field of p.
func (r *PostRepository) Update(ctx context.Context, p *models.Post) error {
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	query := `
		UPDATE posts SET
			title = $2, slug = $3, excerpt = $4, content = $5, featured_image = $6,
			featured_image_alt = $7, status = $8, published_at = $9, scheduled_at = $10,
			meta_title = $11, meta_description = $12, keywords = $13, reading_time = $14,
			category_id = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage, p.FeaturedImageAlt, p.Status,
		p.PublishedAt, p.ScheduledAt, p.MetaTitle, p.MetaDescription, pq.Array(p.Keywords), p.ReadingTime,
		p.CategoryID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// UpdateFeaturedImage sets the image of an existing post.
func (r *PostRepository) UpdateFeaturedImage(ctx context.Context, id, url, alt string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET featured_image = $2, featured_image_alt = $3, updated_at = NOW() WHERE id = $1`,
		id, url, alt)
	if err != nil {
		return fmt.Errorf("failed to update featured image: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectOneRow(res)
}

// IncrementViewCount adds one view.
func (r *PostRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

// CountAIGeneratedSince counts AI-generated posts created at or after since.
func (r *PostRepository) CountAIGeneratedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE is_ai_generated = TRUE AND created_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count AI posts: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p                          models.Post
		status                     string
		keywords                   pq.StringArray
		catName, catSlug, catColor sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.FeaturedImage, &p.FeaturedImageAlt,
		&status, &p.PublishedAt, &p.ScheduledAt, &p.MetaTitle, &p.MetaDescription, &keywords,
		&p.ReadingTime, &p.ViewCount, &p.IsAIGenerated, &p.AIModel, &p.AIPrompt, &p.CategoryID,
		&p.AuthorID, &p.DailySlot, &p.CreatedAt, &p.UpdatedAt, &catName, &catSlug, &catColor,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.ContentStatus(status)
	p.Keywords = []string(keywords)
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.CategoryID != nil && catName.Valid {
		p.Category = &models.CategoryRef{ID: *p.CategoryID, Name: catName.String, Slug: catSlug.String, Color: catColor.String}
	}
	return &p, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
