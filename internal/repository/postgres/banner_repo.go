package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventhub/internal/domain"
)

const bannerColumns = `id, sponsor_id, image_url, link_url, position, is_active, start_date, end_date, views_count, clicks_count, created_at, updated_at`

type bannerRepository struct {
	DB *sql.DB
}

func NewBannerRepository(db *sql.DB) domain.BannerRepository {
	return &bannerRepository{DB: db}
}

func scanBanner(row scanner) (*domain.Banner, error) {
	b := &domain.Banner{}
	err := row.Scan(&b.ID, &b.SponsorID, &b.ImageURL, &b.LinkURL, &b.Position, &b.IsActive, &b.StartDate, &b.EndDate,
		&b.ViewsCount, &b.ClicksCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bannerRepository) Create(ctx context.Context, b *domain.Banner) error {
	query := `
		INSERT INTO banners (sponsor_id, image_url, link_url, position, is_active, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		b.SponsorID, b.ImageURL, b.LinkURL, b.Position, b.IsActive, b.StartDate, b.EndDate, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
}

func (r *bannerRepository) GetByID(ctx context.Context, id string) (*domain.Banner, error) {
	b, err := scanBanner(r.DB.QueryRowContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListActive returns banners that are switched on and whose window contains at.
// An empty position matches every position.
func (r *bannerRepository) ListActive(ctx context.Context, position string, at time.Time) ([]*domain.Banner, error) {
	query := `
		SELECT ` + bannerColumns + `
		FROM banners
		WHERE is_active AND start_date <= $1 AND end_date >= $1 AND ($2 = '' OR position = $2)
		ORDER BY created_at DESC, id
	`
	return r.query(ctx, query, at, position)
}

func (r *bannerRepository) ListBySponsor(ctx context.Context, sponsorID string) ([]*domain.Banner, error) {
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners WHERE sponsor_id = $1 ORDER BY created_at DESC, id`, sponsorID)
}

func (r *bannerRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Banner, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	banners := make([]*domain.Banner, 0)
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

func (r *bannerRepository) Update(ctx context.Context, b *domain.Banner) error {
	query := `
		UPDATE banners
		SET image_url = $1, link_url = $2, position = $3, is_active = $4, start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.DB.ExecContext(ctx, query, b.ImageURL, b.LinkURL, b.Position, b.IsActive, b.StartDate, b.EndDate, b.UpdatedAt, b.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

// Increment bumps a counter atomically and returns the updated banner.
func (r *bannerRepository) Increment(ctx context.Context, id string, counter domain.BannerCounter) (*domain.Banner, error) {
	var query string
	switch counter {
	case domain.BannerCounterView:
		query = `UPDATE banners SET views_count = views_count + 1 WHERE id = $1 RETURNING ` + bannerColumns
	case domain.BannerCounterClick:
		query = `UPDATE banners SET clicks_count = clicks_count + 1 WHERE id = $1 RETURNING ` + bannerColumns
	default:
		return nil, domain.ErrInvalidInput
	}
	b, err := scanBanner(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
