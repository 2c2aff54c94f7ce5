package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventhub/internal/domain"
)

const sponsorColumns = `id, user_id, company_name, description, website, logo_url, banner_url, contact_email, contact_phone, total_views, total_clicks, created_at, updated_at`

type sponsorRepository struct {
	DB *sql.DB
}

func NewSponsorRepository(db *sql.DB) domain.SponsorRepository {
	return &sponsorRepository{DB: db}
}

func scanSponsor(row scanner) (*domain.Sponsor, error) {
	s := &domain.Sponsor{}
	var desc, website, logo, banner, phone sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.CompanyName, &desc, &website, &logo, &banner, &s.ContactEmail, &phone,
		&s.TotalViews, &s.TotalClicks, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Description = stringPtr(desc)
	s.Website = stringPtr(website)
	s.LogoURL = stringPtr(logo)
	s.BannerURL = stringPtr(banner)
	s.ContactPhone = stringPtr(phone)
	return s, nil
}

// Create inserts the profile. The user_id column is unique: one profile per user.
func (r *sponsorRepository) Create(ctx context.Context, s *domain.Sponsor) error {
	query := `
		INSERT INTO sponsors (user_id, company_name, description, website, logo_url, banner_url, contact_email, contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		s.UserID, s.CompanyName, nullStringPtr(s.Description), nullStringPtr(s.Website), nullStringPtr(s.LogoURL),
		nullStringPtr(s.BannerURL), s.ContactEmail, nullStringPtr(s.ContactPhone), s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSponsorProfileExists
		}
		return err
	}
	return nil
}

func (r *sponsorRepository) GetByID(ctx context.Context, id string) (*domain.Sponsor, error) {
	return r.getOne(ctx, `SELECT `+sponsorColumns+` FROM sponsors WHERE id = $1`, id)
}

func (r *sponsorRepository) GetByUserID(ctx context.Context, userID string) (*domain.Sponsor, error) {
	return r.getOne(ctx, `SELECT `+sponsorColumns+` FROM sponsors WHERE user_id = $1`, userID)
}

func (r *sponsorRepository) getOne(ctx context.Context, query string, arg string) (*domain.Sponsor, error) {
	s, err := scanSponsor(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *sponsorRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Sponsor, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sponsors`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + sponsorColumns + ` FROM sponsors ORDER BY company_name, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sponsors := make([]*domain.Sponsor, 0)
	for rows.Next() {
		s, err := scanSponsor(rows)
		if err != nil {
			return nil, 0, err
		}
		sponsors = append(sponsors, s)
	}
	return sponsors, total, rows.Err()
}

func (r *sponsorRepository) Update(ctx context.Context, s *domain.Sponsor) error {
	query := `
		UPDATE sponsors
		SET company_name = $1, description = $2, website = $3, logo_url = $4, banner_url = $5,
			contact_email = $6, contact_phone = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := r.DB.ExecContext(ctx, query,
		s.CompanyName, nullStringPtr(s.Description), nullStringPtr(s.Website), nullStringPtr(s.LogoURL),
		nullStringPtr(s.BannerURL), s.ContactEmail, nullStringPtr(s.ContactPhone), s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *sponsorRepository) Increment(ctx context.Context, id string, counter domain.SponsorCounter) error {
	var query string
	switch counter {
	case domain.SponsorCounterView:
		query = `UPDATE sponsors SET total_views = total_views + 1 WHERE id = $1`
	case domain.SponsorCounterClick:
		query = `UPDATE sponsors SET total_clicks = total_clicks + 1 WHERE id = $1`
	default:
		return domain.ErrInvalidInput
	}
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *sponsorRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sponsors`).Scan(&n)
	return n, err
}

func (r *sponsorRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sponsors WHERE created_at >= $1 AND created_at <= $2`, from, to).Scan(&n)
	return n, err
}
