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

const recipeColumns = `id, title, slug, excerpt, content, featured_image, featured_image_alt,
	prep_time, cook_time, total_time, servings, difficulty, ingredients, instructions,
	calories, protein, carbs, fat, fiber, is_keto, is_vegan, is_vegetarian, is_gluten_free,
	is_dairy_free, status, published_at, meta_title, meta_description, keywords, view_count,
	is_ai_generated, ai_model, category_id, created_at, updated_at`

// RecipeRepository handles recipe persistence.
type RecipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new repository
func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a recipe; a slug collision returns ErrSlugTaken.
func (r *RecipeRepository) Create(ctx context.Context, rc *models.Recipe) error {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	if rc.Difficulty == "" {
		rc.Difficulty = models.DifficultyMedium
	}

	query := `
		INSERT INTO recipes (
			id, title, slug, excerpt, content, featured_image, featured_image_alt,
			prep_time, cook_time, total_time, servings, difficulty, ingredients, instructions,
			calories, protein, carbs, fat, fiber, is_keto, is_vegan, is_vegetarian, is_gluten_free,
			is_dairy_free, status, published_at, meta_title, meta_description, keywords,
			is_ai_generated, ai_model, category_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rc.ID, rc.Title, rc.Slug, rc.Excerpt, rc.Content, rc.FeaturedImage, rc.FeaturedImageAlt,
		rc.PrepTime, rc.CookTime, rc.TotalTime, rc.Servings, rc.Difficulty,
		pq.Array(nonNil(rc.Ingredients)), pq.Array(nonNil(rc.Instructions)),
		rc.Calories, rc.Protein, rc.Carbs, rc.Fat, rc.Fiber,
		rc.IsKeto, rc.IsVegan, rc.IsVegetarian, rc.IsGlutenFree, rc.IsDairyFree,
		rc.Status, rc.PublishedAt, rc.MetaTitle, rc.MetaDescription, pq.Array(nonNil(rc.Keywords)),
		rc.IsAIGenerated, rc.AIModel, rc.CategoryID,
	).Scan(&rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetBySlug returns a recipe by slug.
func (r *RecipeRepository) GetBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	rc, err := scanRecipe(r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return rc, nil
}

// List returns one page of recipes, newest published first.
func (r *RecipeRepository) List(ctx context.Context, q models.ListQuery) ([]models.Recipe, int, error) {
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

	countQuery, countArgs, err := filter(psql.Select("COUNT(*)").From("recipes")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query, args, err := filter(psql.Select(recipeColumns).From("recipes")).
		OrderBy("published_at DESC NULLS LAST", "created_at DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *rc)
	}
	return recipes, total, rows.Err()
}

// UpdateFeaturedImage sets the image of an existing recipe.
func (r *RecipeRepository) UpdateFeaturedImage(ctx context.Context, id, url, alt string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET featured_image = $2, featured_image_alt = $3, updated_at = NOW() WHERE id = $1`,
		id, url, alt)
	if err != nil {
		return fmt.Errorf("failed to update featured image: %w", err)
	}
	return expectOneRow(res)
}

// IncrementViewCount adds one view.
func (r *RecipeRepository) IncrementViewCount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE recipes SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		rc                                  models.Recipe
		difficulty, status                  string
		ingredients, instructions, keywords pq.StringArray
	)
	err := row.Scan(
		&rc.ID, &rc.Title, &rc.Slug, &rc.Excerpt, &rc.Content, &rc.FeaturedImage, &rc.FeaturedImageAlt,
		&rc.PrepTime, &rc.CookTime, &rc.TotalTime, &rc.Servings, &difficulty, &ingredients, &instructions,
		&rc.Calories, &rc.Protein, &rc.Carbs, &rc.Fat, &rc.Fiber, &rc.IsKeto, &rc.IsVegan, &rc.IsVegetarian,
		&rc.IsGlutenFree, &rc.IsDairyFree, &status, &rc.PublishedAt, &rc.MetaTitle, &rc.MetaDescription,
		&keywords, &rc.ViewCount, &rc.IsAIGenerated, &rc.AIModel, &rc.CategoryID, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rc.Difficulty = models.Difficulty(difficulty)
	rc.Status = models.ContentStatus(status)
	rc.Ingredients = nonNil(ingredients)
	rc.Instructions = nonNil(instructions)
	rc.Keywords = nonNil(keywords)
	return &rc, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
