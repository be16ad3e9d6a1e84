package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

const generationLogColumns = `id, type, post_id, recipe_id, prompt, model, tokens_used, success, fallback, error_message, created_at`

// GenerationLogRepository stores one outcome record per generation chain.
type GenerationLogRepository struct {
	db *sql.DB
}

// NewGenerationLogRepository creates a new repository
func NewGenerationLogRepository(db *sql.DB) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Create appends a log entry.
func (r *GenerationLogRepository) Create(ctx context.Context, l *models.GenerationLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO generation_logs (id, type, post_id, recipe_id, prompt, model, tokens_used, success, fallback, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		l.ID, l.Type, l.PostID, l.RecipeID, l.Prompt, l.Model, l.TokensUsed, l.Success, l.Fallback, l.ErrorMessage,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create generation log: %w", err)
	}
	return nil
}

// List returns log entries newest first with the total match count.
func (r *GenerationLogRepository) List(ctx context.Context, q models.GenerationLogQuery) ([]models.GenerationLog, int, error) {
	filter := func(b sq.SelectBuilder) sq.SelectBuilder {
		if q.Type != "" {
			b = b.Where(sq.Eq{"type": string(q.Type)})
		}
		if q.Success != nil {
			b = b.Where(sq.Eq{"success": *q.Success})
		}
		return b
	}

	countQuery, countArgs, err := filter(psql.Select("COUNT(*)").From("generation_logs")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count generation logs: %w", err)
	}

	b := filter(psql.Select(generationLogColumns).From("generation_logs")).OrderBy("created_at DESC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	logs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Stats aggregates all log entries.
func (r *GenerationLogRepository) Stats(ctx context.Context) (*models.GenerationStats, error) {
	stats := &models.GenerationStats{ByType: map[models.GenerationType]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COUNT(*) FILTER (WHERE fallback),
			COALESCE(SUM(tokens_used), 0)
		FROM generation_logs
	`).Scan(&stats.Total, &stats.Successful, &stats.Fallbacks, &stats.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation stats: %w", err)
	}
	stats.Failed = stats.Total - stats.Successful
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM generation_logs GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count generation logs by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType[models.GenerationType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.LastFailures, err = r.query(ctx,
		`SELECT `+generationLogColumns+` FROM generation_logs WHERE NOT success ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *GenerationLogRepository) query(ctx context.Context, query string, args ...any) ([]models.GenerationLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation logs: %w", err)
	}
	defer rows.Close()

	logs := []models.GenerationLog{}
	for rows.Next() {
		var (
			l models.GenerationLog
			t string
		)
		err := rows.Scan(&l.ID, &t, &l.PostID, &l.RecipeID, &l.Prompt, &l.Model,
			&l.TokensUsed, &l.Success, &l.Fallback, &l.ErrorMessage, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		l.Type = models.GenerationType(t)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
