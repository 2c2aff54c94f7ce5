package domain

import (
	"context"
	"time"
)

// Banner is a sponsor advertisement shown at a page position during a date window.
// swagger:model Banner
type Banner struct {
	ID          string    `json:"id"`
	SponsorID   string    `json:"sponsor_id"`
	ImageURL    string    `json:"image_url"`
	LinkURL     string    `json:"link_url"`
	Position    string    `json:"position"`
	IsActive    bool      `json:"is_active"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	ViewsCount  int       `json:"views_count"`
	ClicksCount int       `json:"clicks_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LiveAt reports whether the banner is active and t falls inside its window.
func (b *Banner) LiveAt(t time.Time) bool {
	return b.IsActive && !t.Before(b.StartDate) && !t.After(b.EndDate)
}

// BannerUpdate holds the optional fields of a banner patch.
type BannerUpdate struct {
	ImageURL  *string
	LinkURL   *string
	Position  *string
	IsActive  *bool
	StartDate *time.Time
	EndDate   *time.Time
}

// Apply copies the set fields of u onto b.
func (u BannerUpdate) Apply(b *Banner) {
	if u.ImageURL != nil {
		b.ImageURL = *u.ImageURL
	}
	if u.LinkURL != nil {
		b.LinkURL = *u.LinkURL
	}
	if u.Position != nil {
		b.Position = *u.Position
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
	if u.StartDate != nil {
		b.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		b.EndDate = *u.EndDate
	}
}

// BannerCounter selects which banner counter to increment.
type BannerCounter string

const (
	BannerCounterView  BannerCounter = "view"
	BannerCounterClick BannerCounter = "click"
)

// BannerRepository defines the interface for banner storage.
type BannerRepository interface {
	Create(ctx context.Context, banner *Banner) error
	GetByID(ctx context.Context, id string) (*Banner, error)
	ListActive(ctx context.Context, position string, at time.Time) ([]*Banner, error)
	ListBySponsor(ctx context.Context, sponsorID string) ([]*Banner, error)
	Update(ctx context.Context, banner *Banner) error
	Increment(ctx context.Context, id string, counter BannerCounter) (*Banner, error)
}

// BannerService defines the business logic for banners.
type BannerService interface {
	Create(ctx context.Context, actor Principal, banner *Banner) (*Banner, error)
	ListActive(ctx context.Context, position string) ([]*Banner, error)
	ListBySponsor(ctx context.Context, actor Principal, sponsorID string) ([]*Banner, error)
	Update(ctx context.Context, ac ActionContext, id string, in BannerUpdate) (*Banner, error)
	Track(ctx context.Context, id string, counter BannerCounter) (*Banner, error)
}
