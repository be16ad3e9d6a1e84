package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

const affiliateColumns = `id, name, url, short_code, network, product_id, commission, description,
	image_url, call_to_action, show_in_sidebar, sidebar_order, is_active, click_count, created_at, updated_at`

// AffiliateRepository handles affiliate link persistence.
type AffiliateRepository struct {
	db *sql.DB
}

// NewAffiliateRepository creates a new repository
func NewAffiliateRepository(db *sql.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

// List returns links filtered by q. Sidebar listings are ordered by
// sidebar order, everything else newest first.
func (r *AffiliateRepository) List(ctx context.Context, q models.AffiliateQuery) ([]models.AffiliateLink, error) {
	b := psql.Select(affiliateColumns).From("affiliate_links")
	if q.ActiveOnly {
		b = b.Where("is_active = TRUE")
	}
	if q.SidebarOnly {
		b = b.Where("show_in_sidebar = TRUE").OrderBy("sidebar_order ASC", "created_at DESC")
	} else {
		b = b.OrderBy("created_at DESC")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build affiliate query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliate links: %w", err)
	}
	defer rows.Close()

	links := []models.AffiliateLink{}
	for rows.Next() {
		l, err := scanAffiliate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan affiliate link: %w", err)
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// GetByIDOrShortCode resolves a link by UUID or, failing that, by short code.
func (r *AffiliateRepository) GetByIDOrShortCode(ctx context.Context, key string) (*models.AffiliateLink, error) {
	query := `SELECT ` + affiliateColumns + ` FROM affiliate_links WHERE short_code = $1`
	if _, err := uuid.Parse(key); err == nil {
		query = `SELECT ` + affiliateColumns + ` FROM affiliate_links WHERE id = $1::uuid OR short_code = $1 LIMIT 1`
	}
	l, err := scanAffiliate(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get affiliate link: %w", err)
	}
	return l, nil
}

// Create inserts a link; a short code collision returns ErrShortCodeTaken.
func (r *AffiliateRepository) Create(ctx context.Context, l *models.AffiliateLink) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO affiliate_links (
			id, name, url, short_code, network, product_id, commission, description,
			image_url, call_to_action, show_in_sidebar, sidebar_order, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		l.ID, l.Name, l.URL, l.ShortCode, l.Network, l.ProductID, l.Commission, l.Description,
		l.ImageURL, l.CallToAction, l.ShowInSidebar, l.SidebarOrder, l.IsActive,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to create affiliate link: %w", err)
	}
	return nil
}

// Update writes every editable field of l.
func (r *AffiliateRepository) Update(ctx context.Context, l *models.AffiliateLink) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE affiliate_links SET
			name = $2, url = $3, short_code = $4, network = $5, product_id = $6, commission = $7,
			description = $8, image_url = $9, call_to_action = $10, show_in_sidebar = $11,
			sidebar_order = $12, is_active = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		l.ID, l.Name, l.URL, l.ShortCode, l.Network, l.ProductID, l.Commission,
		l.Description, l.ImageURL, l.CallToAction, l.ShowInSidebar, l.SidebarOrder, l.IsActive,
	).Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if sentinel := translate(err); sentinel != err {
			return sentinel
		}
		return fmt.Errorf("failed to update affiliate link: %w", err)
	}
	return nil
}

// Delete removes a link.
func (r *AffiliateRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM affiliate_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete affiliate link: %w", err)
	}
	return expectOneRow(res)
}

// IncrementClicks adds one click.
func (r *AffiliateRepository) IncrementClicks(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE affiliate_links SET click_count = click_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return expectOneRow(res)
}

func scanAffiliate(row rowScanner) (*models.AffiliateLink, error) {
	var (
		l       models.AffiliateLink
		network string
	)
	err := row.Scan(
		&l.ID, &l.Name, &l.URL, &l.ShortCode, &network, &l.ProductID, &l.Commission, &l.Description,
		&l.ImageURL, &l.CallToAction, &l.ShowInSidebar, &l.SidebarOrder, &l.IsActive, &l.ClickCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Network = models.AffiliateNetwork(network)
	return &l, nil
}
