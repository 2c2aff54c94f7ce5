package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSponsorProfileExists is returned when a user already owns a sponsor profile.
var ErrSponsorProfileExists = errors.New("sponsor profile already exists")

// Sponsor is the company profile of a sponsor account.
// swagger:model Sponsor
type Sponsor struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CompanyName  string    `json:"company_name"`
	Description  *string   `json:"description,omitempty"`
	Website      *string   `json:"website,omitempty"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	BannerURL    *string   `json:"banner_url,omitempty"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	TotalViews   int       `json:"total_views"`
	TotalClicks  int       `json:"total_clicks"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SponsorUpdate holds the optional fields of a sponsor profile patch.
type SponsorUpdate struct {
	CompanyName  *string
	Description  *string
	Website      *string
	LogoURL      *string
	BannerURL    *string
	ContactEmail *string
	ContactPhone *string
}

// Apply copies the set fields of u onto s.
func (u SponsorUpdate) Apply(s *Sponsor) {
	if u.CompanyName != nil {
		s.CompanyName = *u.CompanyName
	}
	if u.Description != nil {
		s.Description = u.Description
	}
	if u.Website != nil {
		s.Website = u.Website
	}
	if u.LogoURL != nil {
		s.LogoURL = u.LogoURL
	}
	if u.BannerURL != nil {
		s.BannerURL = u.BannerURL
	}
	if u.ContactEmail != nil {
		s.ContactEmail = *u.ContactEmail
	}
	if u.ContactPhone != nil {
		s.ContactPhone = u.ContactPhone
	}
}

// SponsorAnalytics summarizes a sponsor's reach.
type SponsorAnalytics struct {
	TotalViews    int     `json:"total_views"`
	TotalClicks   int     `json:"total_clicks"`
	ClickThrough  float64 `json:"click_through_rate"`
	BannerCount   int     `json:"banner_count"`
	ActiveBanners int     `json:"active_banners"`
	BannerViews   int     `json:"banner_views"`
	BannerClicks  int     `json:"banner_clicks"`
}

// SponsorCounter selects which sponsor counter to increment.
type SponsorCounter string

const (
	SponsorCounterView  SponsorCounter = "view"
	SponsorCounterClick SponsorCounter = "click"
)

// SponsorRepository defines the interface for sponsor storage.
type SponsorRepository interface {
	Create(ctx context.Context, sponsor *Sponsor) error
	GetByID(ctx context.Context, id string) (*Sponsor, error)
	GetByUserID(ctx context.Context, userID string) (*Sponsor, error)
	List(ctx context.Context, params PaginationParams) ([]*Sponsor, int, error)
	Update(ctx context.Context, sponsor *Sponsor) error
	Increment(ctx context.Context, id string, counter SponsorCounter) error
	Count(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// SponsorService defines the business logic for sponsor profiles.
type SponsorService interface {
	Create(ctx context.Context, actor Principal, sponsor *Sponsor) (*Sponsor, error)
	GetMine(ctx context.Context, actor Principal) (*Sponsor, error)
	UpdateMine(ctx context.Context, actor Principal, in SponsorUpdate) (*Sponsor, error)
	Analytics(ctx context.Context, actor Principal) (*SponsorAnalytics, error)
	List(ctx context.Context, actor Principal, params PaginationParams) ([]*Sponsor, int, error)
	GetByID(ctx context.Context, id string) (*Sponsor, error)
	Track(ctx context.Context, id string, counter SponsorCounter) error
}
