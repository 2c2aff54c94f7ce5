package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventhub/internal/domain"

	"github.com/lib/pq"
)

const campaignColumns = `id, title, description, start_date, end_date, type, target_audience, status, reach, engagement, conversions, creator_id, created_at, updated_at`

type campaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) domain.CampaignRepository {
	return &campaignRepository{DB: db}
}

func scanCampaign(row scanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var typ, status string
	var audience pq.StringArray
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.StartDate, &c.EndDate, &typ, &audience, &status,
		&c.Metrics.Reach, &c.Metrics.Engagement, &c.Metrics.Conversions, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CampaignType(typ)
	c.Status = domain.CampaignStatus(status)
	c.TargetAudience = []string(audience)
	if c.TargetAudience == nil {
		c.TargetAudience = []string{}
	}
	return c, nil
}

func (r *campaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO marketing_campaigns (title, description, start_date, end_date, type, target_audience, status, reach, engagement, conversions, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		c.Title, c.Description, c.StartDate, c.EndDate, string(c.Type), pq.Array(c.TargetAudience), string(c.Status),
		c.Metrics.Reach, c.Metrics.Engagement, c.Metrics.Conversions, c.CreatorID, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM marketing_campaigns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns campaigns newest first. An empty creatorID lists every campaign.
func (r *campaignRepository) List(ctx context.Context, creatorID string, params domain.PaginationParams) ([]*domain.Campaign, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM marketing_campaigns WHERE ($1::text = '' OR creator_id::text = $1::text)`
	if err := r.DB.QueryRowContext(ctx, countQuery, creatorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + campaignColumns + `
		FROM marketing_campaigns
		WHERE ($1::text = '' OR creator_id::text = $1::text)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, creatorID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	campaigns := make([]*domain.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *campaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	query := `
		UPDATE marketing_campaigns
		SET title = $1, description = $2, start_date = $3, end_date = $4, type = $5, target_audience = $6, status = $7,
			reach = $8, engagement = $9, conversions = $10, updated_at = $11
		WHERE id = $12
	`
	res, err := r.DB.ExecContext(ctx, query,
		c.Title, c.Description, c.StartDate, c.EndDate, string(c.Type), pq.Array(c.TargetAudience), string(c.Status),
		c.Metrics.Reach, c.Metrics.Engagement, c.Metrics.Conversions, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *campaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM marketing_campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *campaignRepository) Stats(ctx context.Context) (*domain.CampaignStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM marketing_campaigns
	`
	s := &domain.CampaignStats{}
	if err := r.DB.QueryRowContext(ctx, query).Scan(&s.Total, &s.Active, &s.Completed); err != nil {
		return nil, err
	}
	s.Draft = s.Total - s.Active - s.Completed
	return s, nil
}
