package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// CategoryRepository handles category persistence.
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new repository
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, slug, description, color, icon, sort_order, meta_title, meta_description, created_at, updated_at`

func scanCategory(row rowScanner, extra ...any) (*models.Category, error) {
	var c models.Category
	dest := []any{&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon, &c.Order,
		&c.MetaTitle, &c.MetaDescription, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns categories ordered by display order with published content counts.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `,
			(SELECT COUNT(*) FROM posts p WHERE p.category_id = categories.id AND p.status = 'PUBLISHED'),
			(SELECT COUNT(*) FROM recipes r WHERE r.category_id = categories.id AND r.status = 'PUBLISHED'),
			(SELECT COUNT(*) FROM videos v WHERE v.category_id = categories.id AND v.status = 'PUBLISHED')
		FROM categories
		ORDER BY sort_order ASC, name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var posts, recipes, videos int
		c, err := scanCategory(rows, &posts, &recipes, &videos)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.PostCount, c.RecipeCount, c.VideoCount = posts, recipes, videos
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// GetByID returns a category.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// FindByName resolves a category by case-insensitive exact name, falling
// back to a case-insensitive substring match. ErrNotFound when neither hits.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	queries := []struct {
		sql string
		arg string
	}{
		{`SELECT ` + categoryColumns + ` FROM categories WHERE LOWER(name) = LOWER($1) ORDER BY sort_order LIMIT 1`, name},
		{`SELECT ` + categoryColumns + ` FROM categories WHERE name ILIKE $1 ORDER BY sort_order LIMIT 1`, "%" + escapeLike(name) + "%"},
	}

	for _, q := range queries {
		c, err := scanCategory(r.db.QueryRowContext(ctx, q.sql, q.arg))
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to find category: %w", err)
		}
	}
	return nil, ErrNotFound
}

// Create inserts a category; a slug collision returns ErrSlugTaken.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, slug, description, color, icon, sort_order, meta_title, meta_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Description, c.Color, c.Icon, c.Order, c.MetaTitle, c.MetaDescription,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update writes every editable field of c.
func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $2, slug = $3, description = $4, color = $5, icon = $6,
			sort_order = $7, meta_title = $8, meta_description = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Slug, c.Description, c.Color, c.Icon, c.Order, c.MetaTitle, c.MetaDescription,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes a category that no post references.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	var posts int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE category_id = $1`, id).Scan(&posts); err != nil {
		return fmt.Errorf("failed to count category posts: %w", err)
	}
	if posts > 0 {
		return ErrCategoryInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectOneRow(res)
}
