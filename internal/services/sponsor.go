package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"eventhub/internal/authz"
	"eventhub/internal/domain"
)

type sponsorService struct {
	sponsors domain.SponsorRepository
	banners  domain.BannerRepository
	now      func() time.Time
}

// NewSponsorService creates a SponsorService. Banners are read for the analytics summary.
func NewSponsorService(sponsors domain.SponsorRepository, banners domain.BannerRepository) domain.SponsorService {
	return &sponsorService{sponsors: sponsors, banners: banners, now: time.Now}
}

func validateSponsor(sp *domain.Sponsor) error {
	sp.CompanyName = strings.TrimSpace(sp.CompanyName)
	if sp.CompanyName == "" {
		return fmt.Errorf("%w: company_name is required", domain.ErrInvalidInput)
	}
	email, err := normalizeEmail(sp.ContactEmail)
	if err != nil {
		return err
	}
	sp.ContactEmail = email
	return nil
}

func (s *sponsorService) Create(ctx context.Context, actor domain.Principal, sponsor *domain.Sponsor) (*domain.Sponsor, error) {
	if actor.Role != domain.RoleSponsor {
		return nil, fmt.Errorf("%w: only sponsor accounts can create a sponsor profile", domain.ErrForbidden)
	}
	if sponsor == nil {
		return nil, fmt.Errorf("%w: sponsor is nil", domain.ErrInvalidInput)
	}
	if err := validateSponsor(sponsor); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sponsor.UserID = actor.ID
	sponsor.TotalViews = 0
	sponsor.TotalClicks = 0
	sponsor.CreatedAt = now
	sponsor.UpdatedAt = now
	if err := s.sponsors.Create(ctx, sponsor); err != nil {
		if errors.Is(err, domain.ErrSponsorProfileExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create sponsor: %w", err)
	}
	return sponsor, nil
}

func (s *sponsorService) GetMine(ctx context.Context, actor domain.Principal) (*domain.Sponsor, error) {
	sponsor, err := s.sponsors.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "failed to get sponsor")
	}
	return sponsor, nil
}

func (s *sponsorService) UpdateMine(ctx context.Context, actor domain.Principal, in domain.SponsorUpdate) (*domain.Sponsor, error) {
	sponsor, err := s.GetMine(ctx, actor)
	if err != nil {
		return nil, err
	}
	in.Apply(sponsor)
	if err := validateSponsor(sponsor); err != nil {
		return nil, err
	}
	sponsor.UpdatedAt = s.now().UTC()
	if err := s.sponsors.Update(ctx, sponsor); err != nil {
		return nil, notFoundOr(err, "failed to update sponsor")
	}
	return sponsor, nil
}

func (s *sponsorService) Analytics(ctx context.Context, actor domain.Principal) (*domain.SponsorAnalytics, error) {
	sponsor, err := s.GetMine(ctx, actor)
	if err != nil {
		return nil, err
	}
	banners, err := s.banners.ListBySponsor(ctx, sponsor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	now := s.now()
	a := &domain.SponsorAnalytics{
		TotalViews:   sponsor.TotalViews,
		TotalClicks:  sponsor.TotalClicks,
		ClickThrough: clickThroughRate(sponsor.TotalClicks, sponsor.TotalViews),
		BannerCount:  len(banners),
	}
	for _, b := range banners {
		if b.LiveAt(now) {
			a.ActiveBanners++
		}
		a.BannerViews += b.ViewsCount
		a.BannerClicks += b.ClicksCount
	}
	return a, nil
}

// clickThroughRate is clicks per hundred views, rounded to two decimals.
func clickThroughRate(clicks, views int) float64 {
	if views == 0 {
		return 0
	}
	return math.Round(float64(clicks)/float64(views)*100*100) / 100
}

func (s *sponsorService) List(ctx context.Context, actor domain.Principal, params domain.PaginationParams) ([]*domain.Sponsor, int, error) {
	if err := authz.Authorize(actor, domain.PermissionManageSponsors); err != nil {
		return nil, 0, err
	}
	sponsors, total, err := s.sponsors.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sponsors: %w", err)
	}
	return sponsors, total, nil
}

func (s *sponsorService) GetByID(ctx context.Context, id string) (*domain.Sponsor, error) {
	sponsor, err := s.sponsors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get sponsor")
	}
	return sponsor, nil
}

func (s *sponsorService) Track(ctx context.Context, id string, counter domain.SponsorCounter) error {
	if err := s.sponsors.Increment(ctx, id, counter); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return notFoundOr(err, "failed to track sponsor")
	}
	return nil
}
