package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/domain"
)

type bannerService struct {
	banners  domain.BannerRepository
	sponsors domain.SponsorRepository
	audit    *AuditTrail
	now      func() time.Time
}

// NewBannerService creates a BannerService. A banner belongs to the user owning its sponsor profile.
func NewBannerService(banners domain.BannerRepository, sponsors domain.SponsorRepository, audit *AuditTrail) domain.BannerService {
	return &bannerService{banners: banners, sponsors: sponsors, audit: audit, now: time.Now}
}

func validateBanner(b *domain.Banner) error {
	b.ImageURL = strings.TrimSpace(b.ImageURL)
	b.LinkURL = strings.TrimSpace(b.LinkURL)
	b.Position = strings.TrimSpace(strings.ToLower(b.Position))
	switch {
	case b.ImageURL == "":
		return fmt.Errorf("%w: image_url is required", domain.ErrInvalidInput)
	case b.LinkURL == "":
		return fmt.Errorf("%w: link_url is required", domain.ErrInvalidInput)
	case b.Position == "":
		return fmt.Errorf("%w: position is required", domain.ErrInvalidInput)
	case b.StartDate.IsZero() || b.EndDate.IsZero():
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidInput)
	case b.EndDate.Before(b.StartDate):
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
	}
	return nil
}

func (s *bannerService) Create(ctx context.Context, actor domain.Principal, banner *domain.Banner) (*domain.Banner, error) {
	if banner == nil {
		return nil, fmt.Errorf("%w: banner is nil", domain.ErrInvalidInput)
	}
	sponsor, err := s.sponsors.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: a sponsor profile is required", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to get sponsor: %w", err)
	}
	if err := validateBanner(banner); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	banner.SponsorID = sponsor.ID
	banner.ViewsCount = 0
	banner.ClicksCount = 0
	banner.CreatedAt = now
	banner.UpdatedAt = now
	if err := s.banners.Create(ctx, banner); err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	return banner, nil
}

func (s *bannerService) ListActive(ctx context.Context, position string) ([]*domain.Banner, error) {
	banners, err := s.banners.ListActive(ctx, strings.TrimSpace(strings.ToLower(position)), s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

// sponsorOwner returns the user id owning sponsorID.
func (s *bannerService) sponsorOwner(ctx context.Context, sponsorID string) (string, error) {
	sponsor, err := s.sponsors.GetByID(ctx, sponsorID)
	if err != nil {
		return "", notFoundOr(err, "failed to get sponsor")
	}
	return sponsor.UserID, nil
}

func (s *bannerService) ListBySponsor(ctx context.Context, actor domain.Principal, sponsorID string) ([]*domain.Banner, error) {
	owner, err := s.sponsorOwner(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	if _, err := ownerOr(actor, owner, domain.PermissionManageContent); err != nil {
		return nil, err
	}
	banners, err := s.banners.ListBySponsor(ctx, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

func (s *bannerService) Update(ctx context.Context, ac domain.ActionContext, id string, in domain.BannerUpdate) (*domain.Banner, error) {
	banner, err := s.banners.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get banner")
	}
	owner, err := s.sponsorOwner(ctx, banner.SponsorID)
	if err != nil {
		return nil, err
	}
	asAdmin, err := ownerOr(ac.Actor, owner, domain.PermissionManageContent)
	if err != nil {
		return nil, err
	}
	wasActive := banner.IsActive
	in.Apply(banner)
	if err := validateBanner(banner); err != nil {
		return nil, err
	}
	banner.UpdatedAt = s.now().UTC()
	if err := s.banners.Update(ctx, banner); err != nil {
		return nil, notFoundOr(err, "failed to update banner")
	}
	if asAdmin {
		s.audit.Record(ctx, ac, domain.AuditActionUpdateBanner, domain.EntityBanner, banner.ID, map[string]any{
			"sponsor_id": banner.SponsorID,
			"was_active": wasActive,
			"is_active":  banner.IsActive,
		})
	}
	return banner, nil
}

func (s *bannerService) Track(ctx context.Context, id string, counter domain.BannerCounter) (*domain.Banner, error) {
	banner, err := s.banners.Increment(ctx, id, counter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, notFoundOr(err, "failed to track banner")
	}
	return banner, nil
}
