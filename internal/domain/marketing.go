package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CampaignType is the channel of a marketing campaign.
type CampaignType string

const (
	CampaignTypeEmail       CampaignType = "email"
	CampaignTypeSocial      CampaignType = "social"
	CampaignTypePush        CampaignType = "push"
	CampaignTypeAIGenerated CampaignType = "ai_generated"
)

// ParseCampaignType normalizes s and returns the matching CampaignType.
func ParseCampaignType(s string) (CampaignType, error) {
	t := CampaignType(strings.TrimSpace(strings.ToLower(s)))
	switch t {
	case CampaignTypeEmail, CampaignTypeSocial, CampaignTypePush, CampaignTypeAIGenerated:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown campaign type %q", ErrInvalidInput, s)
}

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// ParseCampaignStatus normalizes s and returns the matching CampaignStatus.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	st := CampaignStatus(strings.TrimSpace(strings.ToLower(s)))
	switch st {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown campaign status %q", ErrInvalidInput, s)
}

// CampaignMetrics are the performance counters of a campaign.
type CampaignMetrics struct {
	Reach       int `json:"reach"`
	Engagement  int `json:"engagement"`
	Conversions int `json:"conversions"`
}

// MetricsUpdate holds the counters to overwrite. Unset fields keep their value.
type MetricsUpdate struct {
	Reach       *int
	Engagement  *int
	Conversions *int
}

// Apply merges u into m.
func (u MetricsUpdate) Apply(m *CampaignMetrics) {
	if u.Reach != nil {
		m.Reach = *u.Reach
	}
	if u.Engagement != nil {
		m.Engagement = *u.Engagement
	}
	if u.Conversions != nil {
		m.Conversions = *u.Conversions
	}
}

// Campaign is a marketing campaign run by a sponsor or an admin.
// swagger:model Campaign
type Campaign struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Type           CampaignType    `json:"type"`
	TargetAudience []string        `json:"target_audience"`
	Status         CampaignStatus  `json:"status"`
	Metrics        CampaignMetrics `json:"metrics"`
	CreatorID      string          `json:"creator_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CampaignUpdate holds the optional fields of a campaign patch.
type CampaignUpdate struct {
	Title          *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	Type           *CampaignType
	TargetAudience []string
	Status         *CampaignStatus
}

// Apply copies the set fields of u onto c.
func (u CampaignUpdate) Apply(c *Campaign) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.StartDate != nil {
		c.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = *u.EndDate
	}
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.TargetAudience != nil {
		c.TargetAudience = u.TargetAudience
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
}

// CampaignStats counts campaigns by status.
type CampaignStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Draft     int `json:"draft"`
}

// CampaignRepository defines the interface for campaign storage.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id string) (*Campaign, error)
	List(ctx context.Context, creatorID string, params PaginationParams) ([]*Campaign, int, error)
	Update(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*CampaignStats, error)
}

// MarketingService defines the business logic for marketing campaigns.
type MarketingService interface {
	List(ctx context.Context, actor Principal, params PaginationParams) ([]*Campaign, int, error)
	Create(ctx context.Context, actor Principal, campaign *Campaign) (*Campaign, error)
	Get(ctx context.Context, actor Principal, id string) (*Campaign, error)
	Update(ctx context.Context, ac ActionContext, id string, in CampaignUpdate) (*Campaign, error)
	Delete(ctx context.Context, ac ActionContext, id string) error
	Stats(ctx context.Context, actor Principal) (*CampaignStats, error)
	UpdateMetrics(ctx context.Context, ac ActionContext, id string, in MetricsUpdate) (*Campaign, error)
}
