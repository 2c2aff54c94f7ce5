package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/authz"
	"eventhub/internal/domain"
)

type marketingService struct {
	repo  domain.CampaignRepository
	audit *AuditTrail
	now   func() time.Time
}

// NewMarketingService creates a MarketingService backed by repo.
func NewMarketingService(repo domain.CampaignRepository, audit *AuditTrail) domain.MarketingService {
	return &marketingService{repo: repo, audit: audit, now: time.Now}
}

func validateCampaign(c *domain.Campaign) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	t, err := domain.ParseCampaignType(string(c.Type))
	if err != nil {
		return err
	}
	c.Type = t
	if c.Status == "" {
		c.Status = domain.CampaignStatusDraft
	}
	st, err := domain.ParseCampaignStatus(string(c.Status))
	if err != nil {
		return err
	}
	c.Status = st
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidInput)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
	}
	if c.TargetAudience == nil {
		c.TargetAudience = []string{}
	}
	return nil
}

func (s *marketingService) List(ctx context.Context, actor domain.Principal, params domain.PaginationParams) ([]*domain.Campaign, int, error) {
	creator := actor.ID
	if authz.HasPermission(actor, domain.PermissionManageMarketing) {
		creator = ""
	}
	campaigns, total, err := s.repo.List(ctx, creator, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, total, nil
}

func (s *marketingService) Create(ctx context.Context, actor domain.Principal, campaign *domain.Campaign) (*domain.Campaign, error) {
	if actor.Role != domain.RoleSponsor {
		if err := authz.Authorize(actor, domain.PermissionManageMarketing); err != nil {
			return nil, err
		}
	}
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign is nil", domain.ErrInvalidInput)
	}
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	campaign.CreatorID = actor.ID
	campaign.Metrics = domain.CampaignMetrics{}
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// load returns the campaign if actor created it or holds MANAGE_MARKETING.
// asAdmin is true when access came from the permission rather than ownership.
func (s *marketingService) load(ctx context.Context, actor domain.Principal, id string) (campaign *domain.Campaign, asAdmin bool, err error) {
	campaign, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, notFoundOr(err, "failed to get campaign")
	}
	asAdmin, err = ownerOr(actor, campaign.CreatorID, domain.PermissionManageMarketing)
	if err != nil {
		return nil, false, err
	}
	return campaign, asAdmin, nil
}

func (s *marketingService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Campaign, error) {
	campaign, _, err := s.load(ctx, actor, id)
	return campaign, err
}

func (s *marketingService) Update(ctx context.Context, ac domain.ActionContext, id string, in domain.CampaignUpdate) (*domain.Campaign, error) {
	campaign, asAdmin, err := s.load(ctx, ac.Actor, id)
	if err != nil {
		return nil, err
	}
	in.Apply(campaign)
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	campaign.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, notFoundOr(err, "failed to update campaign")
	}
	if asAdmin {
		s.audit.Record(ctx, ac, domain.AuditActionUpdateCampaign, domain.EntityCampaign, id, map[string]any{
			"fields":     campaignUpdateFields(in),
			"creator_id": campaign.CreatorID,
		})
	}
	return campaign, nil
}

func campaignUpdateFields(in domain.CampaignUpdate) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(in.Title != nil, "title")
	add(in.Description != nil, "description")
	add(in.StartDate != nil, "start_date")
	add(in.EndDate != nil, "end_date")
	add(in.Type != nil, "type")
	add(in.TargetAudience != nil, "target_audience")
	add(in.Status != nil, "status")
	return fields
}

func (s *marketingService) Delete(ctx context.Context, ac domain.ActionContext, id string) error {
	campaign, asAdmin, err := s.load(ctx, ac.Actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "failed to delete campaign")
	}
	if asAdmin {
		s.audit.Record(ctx, ac, domain.AuditActionDeleteCampaign, domain.EntityCampaign, id, map[string]any{
			"title":      campaign.Title,
			"creator_id": campaign.CreatorID,
		})
	}
	return nil
}

func (s *marketingService) Stats(ctx context.Context, actor domain.Principal) (*domain.CampaignStats, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}
	return stats, nil
}

func (s *marketingService) UpdateMetrics(ctx context.Context, ac domain.ActionContext, id string, in domain.MetricsUpdate) (*domain.Campaign, error) {
	if err := authz.Authorize(ac.Actor, domain.PermissionManageMarketing); err != nil {
		return nil, err
	}
	for _, v := range []*int{in.Reach, in.Engagement, in.Conversions} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: metrics cannot be negative", domain.ErrInvalidInput)
		}
	}
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get campaign")
	}
	before := campaign.Metrics
	in.Apply(&campaign.Metrics)
	campaign.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, notFoundOr(err, "failed to update campaign")
	}
	s.audit.Record(ctx, ac, domain.AuditActionUpdateCampaignMetrics, domain.EntityCampaign, id, map[string]any{
		"from": before,
		"to":   campaign.Metrics,
	})
	return campaign, nil
}
